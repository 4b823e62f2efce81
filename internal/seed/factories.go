// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"socialconnect/internal/blob"
	"socialconnect/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9_]`)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	blobs blob.Store
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	now   time.Time
	hash  string
}

// NewFactory creates a Factory bound to db. Images are written to blobs when
// it is non-nil; otherwise posts reference placeholder names.
func NewFactory(db *gorm.DB, blobs blob.Store, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := DefaultPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}

	return &Factory{
		db:    db,
		blobs: blobs,
		opts:  opts,
		faker: gofakeit.New(seed),
		// #nosec G404: acceptable for seeding
		rng:  rand.New(rand.NewSource(seed)),
		now:  time.Now().UTC(),
		hash: hash,
	}, nil
}

func (f *Factory) username(i int) string {
	base := strings.ToLower(f.faker.FirstName() + "_" + f.faker.LastName())
	base = usernameUnsafe.ReplaceAllString(base, "")
	if len(base) > 24 {
		base = base[:24]
	}
	return fmt.Sprintf("%s%d", base, i)
}

// CreateUser persists a sample identity. Overrides may modify it before saving.
func (f *Factory) CreateUser(i int, overrides ...func(*models.User)) (*models.User, error) {
	username := f.username(i)
	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   f.hash,
		FullName:   f.faker.Name(),
		Bio:        f.faker.Sentence(8),
		ProfilePic: models.DefaultProfilePic,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// image returns a blob reference for a generated solid-colour PNG.
func (f *Factory) image(ctx context.Context) (string, error) {
	if f.blobs == nil {
		return f.faker.UUID() + ".png", nil
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fill := color.RGBA{R: uint8(f.rng.Intn(256)), G: uint8(f.rng.Intn(256)), B: uint8(f.rng.Intn(256)), A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return f.blobs.Put(ctx, buf.Bytes())
}

// backdate spreads creation times over the configured number of days.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.rng.Int63n(int64(maxDays) * int64(24*time.Hour)))
	return f.now.Add(-back)
}

// CreatePost persists a sample post by author.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	ref, err := f.image(ctx)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:    author.ID,
		Caption:   f.faker.Sentence(10),
		Image:     ref,
		CreatedAt: f.backdate(),
	}
	if f.rng.Intn(3) == 0 {
		post.Location = f.faker.City()
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateStory persists a story created within the last 36 hours, so roughly
// a third of seeded stories are already expired.
func (f *Factory) CreateStory(ctx context.Context, author *models.User) (*models.Story, error) {
	ref, err := f.image(ctx)
	if err != nil {
		return nil, err
	}
	story := &models.Story{
		UserID:    author.ID,
		Image:     ref,
		CreatedAt: f.now.Add(-time.Duration(f.rng.Int63n(int64(36 * time.Hour)))),
	}
	if err := f.db.WithContext(ctx).Create(story).Error; err != nil {
		return nil, err
	}
	return story, nil
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Text:      f.faker.Sentence(6),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Int63n(int64(time.Hour)))),
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow persists the edge follower -> following.
func (f *Factory) CreateFollow(ctx context.Context, follower, following *models.User) error {
	return f.db.WithContext(ctx).Create(&models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
	}).Error
}
