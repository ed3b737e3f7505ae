package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Harshitk-cp/clubledger/internal/auth"
	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"go.uber.org/zap"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const minPasswordLen = 8

type UserService struct {
	users     domain.UserStore
	dir       *DirectoryService
	tokens    *auth.TokenIssuer
	publisher EventPublisher
	logger    *zap.Logger
}

func NewUserService(us domain.UserStore, dir *DirectoryService, tokens *auth.TokenIssuer, pub EventPublisher, logger *zap.Logger) *UserService {
	return &UserService{users: us, dir: dir, tokens: tokens, publisher: pub, logger: logger}
}

// Register creates a self-registered user and publishes UserRegistered.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{Email: email, Name: strings.TrimSpace(name), PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	s.publish(ctx, domain.UserRegistered{UserID: u.ID})
	return u, nil
}

// Login checks credentials and returns a signed access token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if u.PasswordHash == "" || auth.CheckPassword(u.PasswordHash, password) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// FindOrCreate returns the user with email, creating a password-less user
// if none exists. created reports whether a new row was inserted.
func (s *UserService) FindOrCreate(ctx context.Context, email, name string) (u *domain.User, created bool, err error) {
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, false, err
	}

	u, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	u = &domain.User{Email: email, Name: strings.TrimSpace(name)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			u, err = s.users.GetByEmail(ctx, email)
			return u, false, err
		}
		return nil, false, err
	}
	return u, true, nil
}

// AddMember attaches the user with email to tenantID, creating the user if
// needed, and publishes UserCreated scoped to that tenant.
func (s *UserService) AddMember(ctx context.Context, tenantID int64, email, name string) (*domain.User, error) {
	u, created, err := s.FindOrCreate(ctx, email, name)
	if err != nil {
		return nil, err
	}
	if err := s.dir.AddMember(ctx, tenantID, u.ID); err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("user created by tenant admin", zap.Int64("user_id", u.ID), zap.Int64("tenant_id", tenantID))
	}
	s.publish(ctx, domain.UserCreated{UserID: u.ID, TenantID: &tenantID})
	return u, nil
}

func (s *UserService) publish(ctx context.Context, ev domain.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish event", zap.String("kind", string(ev.Kind())), zap.Error(err))
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
