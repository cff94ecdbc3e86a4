package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/asset-management/internal/model"
	"github.com/iliyamo/asset-management/internal/utils"
)

const userColumns = "id, name, email, contact, company_name, location, role, password_hash, created_at"

// UserRepo persists the user directory.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Contact, &u.CompanyName, &u.Location, &u.Role, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Create hashes password with the given bcrypt cost and inserts u. On
// success u.ID and u.CreatedAt are populated. A duplicate email yields
// ErrEmailExists and leaves the table untouched.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if !model.ValidRole(u.Role) {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	taken, err := exists(ctx, r.db, "SELECT 1 FROM users WHERE email = ?", u.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, contact, company_name, location, password_hash, role) VALUES (?,?,?,?,?,?,?)",
		u.Name, u.Email, u.Contact, u.CompanyName, u.Location, hash, u.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM users WHERE id = ?", u.ID).Scan(&u.CreatedAt)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// RoleByID returns the stored role of a user. The auth middleware calls it
// on every request so role changes take effect immediately.
func (r *UserRepo) RoleByID(ctx context.Context, id uint64) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return role, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update overwrites the profile fields of u.ID. The existence check and the
// write share one transaction.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "SELECT 1 FROM users WHERE id = ?", u.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		taken, err := exists(ctx, tx, "SELECT 1 FROM users WHERE email = ? AND id <> ?", u.Email, u.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailExists
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET name = ?, email = ?, contact = ?, company_name = ?, location = ? WHERE id = ?",
			u.Name, u.Email, u.Contact, u.CompanyName, u.Location, u.ID)
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	})
}

// Delete removes a user. Assets assigned to them are unassigned and their
// service requests are deleted in the same transaction, so nothing is left
// pointing at the removed id.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "SELECT 1 FROM users WHERE id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "UPDATE assets SET assigned_to = NULL WHERE assigned_to = ?", id); err != nil {
			return fmt.Errorf("unassign assets: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_services WHERE user_id = ?", id); err != nil {
			return fmt.Errorf("delete service requests: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
