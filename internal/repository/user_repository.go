package repository

import (
	"context"
	"database/sql"

	"github.com/mkorchagin/shortlink/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	query := `
        INSERT INTO users (username, email, hashed_password, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	row := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.HashedPassword, user.CreatedAt)
	return row.Scan(&user.ID)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
        SELECT id, username, email, hashed_password, created_at
        FROM users
        WHERE username = $1
    `
	var user models.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
