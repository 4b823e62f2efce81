// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
)

// TB is the subset of testing.TB the fixtures need.
type TB interface {
	Helper()
	Fatalf(string, ...any)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory JPEG filled with one colour.
func TinyJPEG(t TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// BlobStoreStub is an in-memory blob store that records every call.
type BlobStoreStub struct {
	mu      sync.Mutex
	next    int
	Blobs   map[string][]byte
	Deleted []string
	PutErr  error
	DelErr  error
}

// NewBlobStoreStub creates an empty in-memory blob store.
func NewBlobStoreStub() *BlobStoreStub {
	return &BlobStoreStub{Blobs: make(map[string][]byte)}
}

// Put stores data under a sequential reference.
func (s *BlobStoreStub) Put(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return "", s.PutErr
	}
	if len(data) == 0 {
		return "", errors.New("empty blob")
	}
	s.next++
	ref := fmt.Sprintf("blob-%d.png", s.next)
	s.Blobs[ref] = data
	return ref, nil
}

// Delete removes ref. Missing references are not an error.
func (s *BlobStoreStub) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DelErr != nil {
		return s.DelErr
	}
	s.Deleted = append(s.Deleted, ref)
	delete(s.Blobs, ref)
	return nil
}

// Has reports whether ref is currently stored.
func (s *BlobStoreStub) Has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Blobs[ref]
	return ok
}
