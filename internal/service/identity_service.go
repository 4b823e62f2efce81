package service

import (
	"context"
	"strings"

	"socialconnect/internal/authz"
	"socialconnect/internal/blob"
	"socialconnect/internal/cache"
	"socialconnect/internal/models"
	"socialconnect/internal/observability"
	"socialconnect/internal/repository"
	"socialconnect/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Authenticator hashes credentials and issues or revokes access tokens.
type Authenticator interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) bool
	IssueToken(userID uint, username string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// IdentityService manages accounts and profiles.
type IdentityService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	auth    Authenticator
	blobs   blob.Store
	guard   authz.Guard
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UpdateProfileInput carries the optional profile changes. Empty strings
// and a nil picture leave the corresponding field untouched.
type UpdateProfileInput struct {
	ActorID         uint
	TargetID        uint
	Bio             *string
	FullName        string
	Password        string
	CurrentPassword string
	Picture         []byte
}

func NewIdentityService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	auth Authenticator,
	blobs blob.Store,
	guard authz.Guard,
) *IdentityService {
	return &IdentityService{users: users, follows: follows, auth: auth, blobs: blobs, guard: guard}
}

func (s *IdentityService) Signup(ctx context.Context, in SignupInput) (res *AuthResult, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "IdentityService", "Signup")
	defer func() { finish(err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	for _, check := range []func() error{
		func() error { return validation.ValidateUsername(in.Username) },
		func() error { return validation.ValidateEmail(in.Email) },
		func() error { return validation.ValidatePassword(in.Password) },
		func() error { return validation.ValidateFullName(in.FullName) },
	} {
		if err := check(); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}
	existing, err = s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewStoreFailure(err)
	}

	user := &models.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   hash,
		FullName:   in.FullName,
		ProfilePic: models.DefaultProfilePic,
	}
	// The unique indexes still catch a concurrent signup that passed the checks above.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "IdentityService", "Login")
	defer func() { finish(err) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.auth.ComparePassword(user.Password, password) {
		return nil, models.NewAuthError("Invalid credentials")
	}

	token, err := s.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, models.NewStoreFailure(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Logout revokes token until it would have expired anyway.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return models.NewAuthError("Missing token")
	}
	if err := s.auth.Revoke(ctx, token); err != nil {
		return models.NewStoreFailure(err)
	}
	return nil
}

// GetProfile returns the identity with its follow sets. The email is only
// shown to its owner.
func (s *IdentityService) GetProfile(ctx context.Context, viewerID uint, username string) (user *models.User, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "IdentityService", "GetProfile")
	defer func() { finish(err) }()

	user, err = s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	if user.Following, err = s.follows.FollowingOf(ctx, user.ID); err != nil {
		return nil, err
	}
	if user.Followers, err = s.follows.FollowersOf(ctx, user.ID); err != nil {
		return nil, err
	}
	if user.ID != viewerID {
		user.Email = ""
	}
	return user, nil
}

func (s *IdentityService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (user *models.User, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "IdentityService", "UpdateProfile",
		attribute.Int64("actor.id", int64(in.ActorID)),
	)
	defer func() { finish(err) }()

	if err := s.guard.AssertOwner(in.ActorID, in.TargetID); err != nil {
		return nil, err
	}

	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.FullName != "" {
		if err := validation.ValidateFullName(in.FullName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	user, err = s.users.GetForUpdate(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}

	if in.Password != "" {
		if in.CurrentPassword == "" {
			return nil, models.NewValidationError("Current password is required to set a new password")
		}
		if !s.auth.ComparePassword(user.Password, in.CurrentPassword) {
			return nil, models.NewValidationError("Current password is incorrect")
		}
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := s.auth.HashPassword(in.Password)
		if err != nil {
			return nil, models.NewStoreFailure(err)
		}
		user.Password = hash
	}

	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.FullName != "" {
		user.FullName = strings.TrimSpace(in.FullName)
	}

	oldPic := user.ProfilePic
	var newPic string
	if len(in.Picture) > 0 {
		if newPic, err = s.blobs.Put(ctx, in.Picture); err != nil {
			return nil, err
		}
		user.ProfilePic = newPic
	}

	if err := s.users.Update(ctx, user); err != nil {
		if newPic != "" {
			releaseBlob(ctx, s.blobs, newPic)
		}
		return nil, err
	}
	// Cached feeds embed the author summary.
	cache.InvalidateExploreFeed(ctx)
	if newPic != "" && oldPic != "" && oldPic != models.DefaultProfilePic {
		releaseBlob(ctx, s.blobs, oldPic)
	}
	return user, nil
}
