package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"quickchat/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const uniqueViolation = "23505"

// UserRepository abstracts user persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, fullname, email, passwordHash, bio string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id int) (models.User, error)
	UpdateProfile(ctx context.Context, id int, fullname, bio, pic string) (models.User, error)
	ListOtherUsers(ctx context.Context, userID int) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, fullname, email, password, pic, bio, created_at`

// CreateUser inserts a new account. A duplicate email maps to ErrEmailTaken.
func (r *UserRepo) CreateUser(ctx context.Context, fullname, email, passwordHash, bio string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (fullname, email, password, pic, bio) VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		fullname, email, passwordHash, models.DefaultAvatarURL, bio).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail fetches an account by its unique email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByID fetches an account by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile updates fullname and bio, and the picture URL when one is given.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int, fullname, bio, pic string) (models.User, error) {
	var user models.User
	var err error
	if pic == "" {
		err = r.db.QueryRowxContext(ctx,
			`UPDATE users SET fullname=$1, bio=$2 WHERE id=$3 RETURNING `+userColumns,
			fullname, bio, id).StructScan(&user)
	} else {
		err = r.db.QueryRowxContext(ctx,
			`UPDATE users SET fullname=$1, bio=$2, pic=$3 WHERE id=$4 RETURNING `+userColumns,
			fullname, bio, pic, id).StructScan(&user)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListOtherUsers returns every account except the given one.
func (r *UserRepo) ListOtherUsers(ctx context.Context, userID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id<>$1 ORDER BY fullname ASC`, userID)
	return users, err
}
