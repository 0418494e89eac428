package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/storefront/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY, raised by the UNIQUE index on email.
const mysqlDuplicateEntry = 1062

const userColumns = "id,name,email,pass_hash,salt,created_at,is_admin,is_verified,verify_token,verify_token_expires"

// MySQLUserRepo mirrors the 'users' table.  Email uniqueness is enforced by
// the database, not by a scan.
type MySQLUserRepo struct{ DB *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{DB: db} }

// Create inserts the user.
func (r *MySQLUserRepo) Create(ctx context.Context, u model.User) error {
	u.Email = normalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Email, u.PassHash, u.Salt, u.CreatedAt, u.IsAdmin, u.IsVerified,
		nullString(u.VerifyToken), nullInt64(u.VerifyTokenExpires))
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

func (r *MySQLUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, r.DB, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByEmail fetches a user by normalized email.
func (r *MySQLUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, r.DB, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
}

func (r *MySQLUserRepo) GetByVerifyToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotFound
	}
	return r.getOne(ctx, r.DB, "SELECT "+userColumns+" FROM users WHERE verify_token=? LIMIT 1", token)
}

// Update locks the row, applies fn and writes every mutable column back in
// the same transaction.
func (r *MySQLUserRepo) Update(ctx context.Context, id string, fn func(*model.User) error) (out model.User, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	u, err := r.getOne(ctx, tx, "SELECT "+userColumns+" FROM users WHERE id=? FOR UPDATE", id)
	if err != nil {
		return model.User{}, err
	}
	if err = fn(&u); err != nil {
		return model.User{}, err
	}
	u.Email = normalizeEmail(u.Email)
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET name=?, email=?, pass_hash=?, salt=?, is_admin=?, is_verified=?,
		 verify_token=?, verify_token_expires=? WHERE id=?`,
		u.Name, u.Email, u.PassHash, u.Salt, u.IsAdmin, u.IsVerified,
		nullString(u.VerifyToken), nullInt64(u.VerifyTokenExpires), id)
	if isDuplicate(err) {
		err = ErrEmailExists
		return model.User{}, err
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *MySQLUserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *MySQLUserRepo) getOne(ctx context.Context, q queryRower, query string, arg any) (model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func scanUser(s scanner) (model.User, error) {
	var (
		u       model.User
		token   sql.NullString
		expires sql.NullInt64
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PassHash, &u.Salt, &u.CreatedAt,
		&u.IsAdmin, &u.IsVerified, &token, &expires); err != nil {
		return model.User{}, err
	}
	u.VerifyToken = token.String
	u.VerifyTokenExpires = expires.Int64
	return u, nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func nullInt64(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: n != 0} }
