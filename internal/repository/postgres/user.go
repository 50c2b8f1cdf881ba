package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storytime/internal/logger"
	"storytime/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateUser inserts a user with an already hashed password
func (p *PostgresDB) CreateUser(ctx context.Context, username, email, name, passwordHash string) (*db.User, error) {
	user := db.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}

	query := `
	INSERT INTO users (id, username, email, name, password_hash)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`

	err := p.conn.QueryRowContext(ctx, query, user.ID, username, email, name, passwordHash).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, db.ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": user.ID}).Info("Created new user")

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (p *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	query := `SELECT id, username, email, name, password_hash, created_at FROM users WHERE username = $1`
	return p.scanUser(p.conn.QueryRowContext(ctx, query, username))
}

// GetUserByID retrieves a user by id
func (p *PostgresDB) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	if !validID(id) {
		return nil, db.ErrNotFound
	}
	query := `SELECT id, username, email, name, password_hash, created_at FROM users WHERE id = $1`
	return p.scanUser(p.conn.QueryRowContext(ctx, query, id))
}

func (p *PostgresDB) scanUser(row *sql.Row) (*db.User, error) {
	var user db.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &user, nil
}

// validID reports whether id can be compared against a UUID column.
// Malformed ids cannot match any row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
