// Package blob persists uploaded images and hands back opaque references.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"socialconnect/internal/models"
	"socialconnect/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxBytes = 10 * 1024 * 1024
	// MaxDimension bounds the longest edge of a stored image.
	MaxDimension = 2048
	JPEGQuality  = 82
	WebPQuality  = 80
)

// Store persists binary content. Put returns a reference; Delete is
// idempotent and never fails for a reference that is already gone.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// FSStore keeps blobs as flat files under a root directory of an afero
// filesystem. References are file names, served under /uploads.
type FSStore struct {
	fs       afero.Fs
	maxBytes int64
}

// NewFSStore roots a store at dir on fs, creating the directory if needed.
func NewFSStore(fs afero.Fs, dir string, maxBytes int64) (*FSStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if dir == "" {
		dir = "uploads"
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FSStore{fs: afero.NewBasePathFs(fs, dir), maxBytes: maxBytes}, nil
}

// NewDiskStore is an FSStore on the real filesystem.
func NewDiskStore(dir string, maxBytes int64) (*FSStore, error) {
	return NewFSStore(afero.NewOsFs(), dir, maxBytes)
}

func (s *FSStore) Put(ctx context.Context, data []byte) (ref string, err error) {
	defer func() { observability.BlobOperations.WithLabelValues("put", observability.Result(err)).Inc() }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", models.NewValidationError("No image uploaded")
	}
	if int64(len(data)) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("Image too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	if !allowedMIME(http.DetectContentType(data)) {
		return "", models.NewValidationError("Invalid image type")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	ext, ok := extensions[format]
	if !ok {
		return "", models.NewValidationError("Unsupported image format")
	}

	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		data, ext, err = downscale(data, format)
		if err != nil {
			return "", models.NewValidationError("Invalid image file")
		}
	}

	ref = uuid.NewString() + ext
	if err := afero.WriteFile(s.fs, ref, data, 0o644); err != nil {
		return "", models.NewStoreFailure(err)
	}
	return ref, nil
}

func (s *FSStore) Delete(ctx context.Context, ref string) (err error) {
	defer func() { observability.BlobOperations.WithLabelValues("delete", observability.Result(err)).Inc() }()

	if ref == "" || ref == models.DefaultProfilePic {
		return nil
	}
	name, err := cleanRef(ref)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return models.NewStoreFailure(err)
	}
	return nil
}

// Exists reports whether a reference is currently stored.
func (s *FSStore) Exists(ref string) bool {
	name, err := cleanRef(ref)
	if err != nil {
		return false
	}
	ok, _ := afero.Exists(s.fs, name)
	return ok
}

// cleanRef accepts only bare file names, as produced by Put.
func cleanRef(ref string) (string, error) {
	ref = strings.TrimPrefix(ref, "/uploads/")
	if ref == "" || strings.ContainsAny(ref, `/\`) || ref == "." || ref == ".." || path.Base(ref) != ref {
		return "", models.NewValidationError("Invalid blob reference")
	}
	return ref, nil
}

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

func allowedMIME(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// downscale fits the image inside MaxDimension and re-encodes it. GIFs are
// flattened to their first frame and stored as PNG.
func downscale(data []byte, format string) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = h * MaxDimension / w
		w = MaxDimension
	} else {
		w = w * MaxDimension / h
		h = MaxDimension
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
		return buf.Bytes(), ".jpg", err
	case "webp":
		err = webp.Encode(&buf, dst, &webp.Options{Quality: WebPQuality})
		return buf.Bytes(), ".webp", err
	default:
		err = png.Encode(&buf, dst)
		return buf.Bytes(), ".png", err
	}
}
