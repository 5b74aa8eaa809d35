package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/repository"
	"github.com/iliyamo/writing-practice-api/internal/utils"
)

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users  *repository.UserRepo
	secret string
	ttl    time.Duration
	cost   int
}

func NewAuthService(users *repository.UserRepo, secret string, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{users: users, secret: secret, ttl: ttl, cost: bcryptCost}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is what register and login hand back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// Register creates a USER account and signs a token for it.  A taken email
// yields repository.ErrEmailExists and leaves the store unchanged.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	u, err := s.users.Create(ctx, in.Name, in.Email, in.Password, model.RoleUser, s.cost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return s.session(u)
}

// Login verifies email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

// User returns the account behind id.  It also serves as the guard's lookup.
func (s *AuthService) User(ctx context.Context, id uint64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) session(u model.User) (Session, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, string(u.Role), s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: tok.Token, ExpiresAt: tok.Exp, User: u}, nil
}
