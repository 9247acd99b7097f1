package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/eventhub/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// MySQLUserRepo mirrors the 'users' table.
type MySQLUserRepo struct{ DB *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{DB: db} }

// Create inserts the user and returns it with id and CreatedAt set.
func (r *MySQLUserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, name, role, provider, image, created_at) VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Provider, u.Image, u.CreatedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return model.User{}, fmt.Errorf("email %s: %w", u.Email, ErrAlreadyExists)
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *MySQLUserRepo) GetByEmail(ctx context.Context, email string) (model.User, bool, error) {
	return r.getOne(ctx, "email", normalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *MySQLUserRepo) GetByID(ctx context.Context, id string) (model.User, bool, error) {
	return r.getOne(ctx, "id", id)
}

func (r *MySQLUserRepo) getOne(ctx context.Context, col, val string) (model.User, bool, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,name,role,provider,image,created_at FROM users WHERE "+col+"=? LIMIT 1",
		val).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Provider, &u.Image, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}
