package account

import (
	"context"
	"errors"
	"fmt"

	"storytime/internal/app"
	"storytime/internal/auth"
	"storytime/internal/config"
	"storytime/internal/logger"
	"storytime/internal/repository/db"
	"storytime/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Session is the result of a successful registration or login
type Session struct {
	Token string
	User  *db.User
}

// AccountService registers users and issues session tokens
type AccountService struct {
	db     db.Database
	tokens *auth.TokenManager
	cost   int
}

// NewAccountService creates a new AccountService
func NewAccountService(config *app.Config) *AccountService {
	return &AccountService{
		db:     config.DB,
		tokens: config.Tokens,
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates a user and signs them in
func (s *AccountService) Register(ctx context.Context, username, email, name, password string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.db.CreateUser(ctx, username, email, name, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": user.ID}).Info("User registered")

	return s.session(user)
}

// Login verifies the password and returns a new session
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logger.Log.WithField("username", username).Warn("Login failed: user not found")
			return nil, service.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.WithField("username", username).Warn("Login failed: invalid password")
		return nil, service.ErrInvalidCredentials
	}

	logger.Log.WithField("username", username).Info("User logged in")

	return s.session(user)
}

// Me returns the profile of the signed in user
func (s *AccountService) Me(ctx context.Context, userID string) (*db.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SeedDemoUser creates the demo user if it doesn't exist
func (s *AccountService) SeedDemoUser(ctx context.Context, seed config.SeedConfig) error {
	if !seed.DemoUser {
		return nil
	}

	if _, err := s.db.GetUserByUsername(ctx, seed.DemoUsername); err == nil {
		logger.Log.Info("Demo user already exists, skipping seed")
		return nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("error checking demo user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.DemoPassword), s.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	email := seed.DemoUsername + "@example.com"
	if _, err := s.db.CreateUser(ctx, seed.DemoUsername, email, "Demo", string(hash)); err != nil && !errors.Is(err, db.ErrUsernameTaken) {
		return fmt.Errorf("error seeding demo user: %w", err)
	}

	logger.Log.WithField("username", seed.DemoUsername).Info("Demo user seeded successfully")
	return nil
}

func (s *AccountService) session(user *db.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
