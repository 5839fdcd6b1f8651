package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"todo-api/internal/model"
	"todo-api/internal/pkg/jwtutil"
	"todo-api/internal/pkg/password"
	"todo-api/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already registered")
	ErrEmailExists       = errors.New("email already registered")
	ErrUserExists        = errors.New("username or email already registered")
	ErrInvalidCredential = errors.New("incorrect username or password")
	ErrUnauthenticated   = errors.New("could not validate credentials")
)

// bcrypt rejects longer input.
const maxPasswordBytes = 72

type UserCache interface {
	GetUser(ctx context.Context, username string) (*model.User, bool, error)
	SetUser(ctx context.Context, user *model.User) error
}

type AuthService struct {
	userRepo      *repository.UserRepository
	userCache     UserCache
	jwtSecret     string
	jwtExpiration time.Duration

	lookups singleflight.Group
	now     func() time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	Token string
	User  *model.User
}

// NewAuthService wires the credential flow. userCache may be nil.
func NewAuthService(userRepo *repository.UserRepository, userCache UserCache, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		userCache:     userCache,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	existingByName, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	user, err := s.userRepo.CreateUser(ctx, username, email, input.Password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent registration
			return nil, ErrUserExists
		}
		return nil, err
	}

	log.Ctx(ctx).Info().Str("username", user.Username).Uint("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredential
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// IssueToken signs an access token whose subject is the username.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	return jwtutil.GenerateTokenAt(s.jwtSecret, s.now(), s.jwtExpiration, user.ID, user.Username)
}

// ResolveIdentity maps a bearer token to its user. Every token or lookup
// miss is reported as ErrUnauthenticated; store failures are returned as is.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*model.User, error) {
	claims, err := jwtutil.ParseTokenAt(s.jwtSecret, token, s.now())
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.lookupUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

func (s *AuthService) lookupUser(ctx context.Context, username string) (*model.User, error) {
	if s.userCache != nil {
		cached, hit, err := s.userCache.GetUser(ctx, username)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("user cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	// The flight is shared, so one caller going away must not fail the rest.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.lookups.Do(username, func() (any, error) {
		user, err := s.userRepo.FindByUsername(flightCtx, username)
		if err != nil || user == nil {
			return user, err
		}
		if s.userCache != nil {
			if cacheErr := s.userCache.SetUser(flightCtx, user); cacheErr != nil {
				log.Ctx(flightCtx).Warn().Err(cacheErr).Msg("user cache write failed")
			}
		}
		return user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve identity failed: %w", err)
	}
	user, _ := v.(*model.User)
	return user, nil
}
