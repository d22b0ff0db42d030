package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/alloyapp/alloy/core/user"
	"github.com/alloyapp/alloy/storage/database"
)

const (
	userColumns = "id, username, email, password_hash, reset_token_hash, reset_expires_at, last_login, created_at, updated_at"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// userSweep deletes every row owned by a user; subjects go last as tasks may reference them.
var userSweep = []string{
	"DELETE FROM notes WHERE user_id = $1",
	"DELETE FROM tasks WHERE user_id = $1",
	"DELETE FROM attendance_records WHERE user_id = $1",
	"DELETE FROM timetable_entries WHERE user_id = $1",
	"DELETE FROM documents WHERE user_id = $1",
	"DELETE FROM conversations WHERE user_id = $1",
	"DELETE FROM subjects WHERE user_id = $1",
}

type userRow struct {
	ID             string      `db:"id"`
	Username       string      `db:"username"`
	Email          string      `db:"email"`
	PasswordHash   []byte      `db:"password_hash"`
	ResetTokenHash null.String `db:"reset_token_hash"`
	ResetExpiresAt null.Time   `db:"reset_expires_at"`
	LastLogin      null.Time   `db:"last_login"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r userRow) unboil() user.User {
	usr := user.User(r)
	usr.CreatedAt = usr.CreatedAt.UTC()
	usr.UpdatedAt = usr.UpdatedAt.UTC()
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	var rows []userRow
	q := "SELECT " + userColumns + " FROM users WHERE (username = $1 OR email = $2) AND NOT (id = ANY($3::uuid[]))"
	if err := repo.db.SelectContext(ctx, &rows, q, username, email, pq.Array(excludedIDs)); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
		if r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func trapUserConflict(err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case usernameConstraint:
			return user.ErrUsernameExists
		case emailConstraint:
			return user.ErrEmailExists
		}
	}
	return err
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID()
	q := "INSERT INTO users (" + userColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Username, usr.Email, usr.PasswordHash, usr.ResetTokenHash, usr.ResetExpiresAt,
		usr.LastLogin, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(trapUserConflict(err), "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		where, arg = "id = $1", filter.ID
	case filter.Email != "":
		where, arg = "email = $1", strings.ToLower(filter.Email)
	case filter.UsernameOrEmail != "":
		where, arg = "(username = $1 OR email = lower($1))", filter.UsernameOrEmail
	case filter.ResetTokenHash != "":
		where, arg = "reset_token_hash = $1", filter.ResetTokenHash
	default:
		return user.User{}, user.ErrNotFound
	}

	var r userRow
	if err := repo.db.GetContext(ctx, &r, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg); err != nil {
		return user.User{}, errors.Wrap(trapNoRowsErr(err, user.ErrNotFound), "getting user")
	}
	return r.unboil(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	q := `UPDATE users SET username = $2, email = $3, password_hash = $4, reset_token_hash = $5,
		reset_expires_at = $6, last_login = $7, updated_at = $8 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Username, usr.Email, usr.PasswordHash, usr.ResetTokenHash, usr.ResetExpiresAt,
		usr.LastLogin, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(trapUserConflict(err), "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) ([]string, error) {
	if !validID(id) {
		return nil, user.ErrNotFound
	}
	var paths []string
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var found string
		if err := tx.GetContext(ctx, &found, "SELECT id FROM users WHERE id = $1 FOR UPDATE", id); err != nil {
			return errors.Wrap(trapNoRowsErr(err, user.ErrNotFound), "locking user")
		}
		if err := tx.SelectContext(ctx, &paths, "SELECT file_path FROM documents WHERE user_id = $1", id); err != nil {
			return errors.Wrap(err, "listing document files")
		}
		for _, q := range userSweep {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return errors.Wrapf(err, "sweeping user data (%s)", q)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
