package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = "id,name,email,password_hash,role,created_at,updated_at"

// NormalizeEmail trims and lower-cases an address; emails are stored this way.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (model.User, error) {
	if !role.Valid() {
		return model.User{}, model.ErrInvalidRole
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	now := now()
	u := model.User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u.ID = uint64(id)
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// EnsureAdmin creates an ADMIN account for email, or promotes the existing
// account to ADMIN leaving its name and password untouched.  created reports
// whether a new row was inserted.
func (r *UserRepo) EnsureAdmin(ctx context.Context, name, email, password string, cost int) (u model.User, created bool, err error) {
	u, err = r.Create(ctx, name, email, password, model.RoleAdmin, cost)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, ErrEmailExists) {
		return model.User{}, false, err
	}
	if _, err = r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE email=?",
		string(model.RoleAdmin), now(), NormalizeEmail(email)); err != nil {
		return model.User{}, false, err
	}
	u, err = r.GetByEmail(ctx, email)
	return u, false, err
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return u, nil
}

// now is the timestamp source for created_at/updated_at.  Values are UTC and
// truncated to the second so MySQL DATETIME and SQLite text compare alike.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }
