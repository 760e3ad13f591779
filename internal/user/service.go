package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrEmailTaken         = errors.New("a user with that email already exists")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
)

const minPasswordLength = 8

// ValidationError maps request fields to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid data: " + strings.Join(parts, "; ")
}

type DBLayer interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type TokenIssuer interface {
	IssuePair(userID string, admin bool) (models.TokenPair, error)
	Refresh(raw string) (string, error)
}

type Service struct {
	DB     DBLayer
	Tokens TokenIssuer
	Log    *logger.Logger
	Cost   int
}

func NewService(db DBLayer, tokens TokenIssuer, log *logger.Logger) *Service {
	return &Service{DB: db, Tokens: tokens, Log: log, Cost: bcrypt.DefaultCost}
}

func validate(req models.RegisterRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "This field is required."
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "Enter a valid email address."
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Register creates a user and returns a fresh token pair for it.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest, admin bool) (*models.RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate(req); err != nil {
		return nil, err
	}

	taken, err := s.DB.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.DB.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsAdmin:      admin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	pair, err := s.Tokens.IssuePair(u.ID, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	s.Log.LogSecurity("REGISTER", fmt.Sprintf("user %s (%s) admin=%t", u.Username, u.ID, u.IsAdmin))
	return &models.RegisterResponse{
		Username:     u.Username,
		Email:        u.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *Service) Login(ctx context.Context, req models.TokenRequest) (models.TokenPair, error) {
	u, err := s.DB.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, ErrNotFound) {
		return models.TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.Log.LogSecurity("LOGIN_FAILED", "bad password for "+u.Username)
		return models.TokenPair{}, ErrInvalidCredentials
	}
	return s.Tokens.IssuePair(u.ID, u.IsAdmin)
}

func (s *Service) Refresh(req models.RefreshRequest) (models.TokenPair, error) {
	access, err := s.Tokens.Refresh(req.Refresh)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access}, nil
}
