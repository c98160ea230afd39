package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

// userRow mirrors the "user" table; nullable timestamps map to zero values.
type userRow struct {
	ID               string       `db:"id"`
	Username         string       `db:"username"`
	Email            string       `db:"email"`
	Name             string       `db:"name"`
	PasswordHash     []byte       `db:"password_hash"`
	ProfilePicture   string       `db:"profile_picture"`
	Role             string       `db:"role"`
	ResetToken       string       `db:"reset_token"`
	ResetTokenExpiry sql.NullTime `db:"reset_token_expiry"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
	LastLogin        sql.NullTime `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		Name:           r.Name,
		PasswordHash:   r.PasswordHash,
		ProfilePicture: r.ProfilePicture,
		Role:           r.Role,
		ResetToken:     r.ResetToken,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ResetTokenExpiry.Valid {
		usr.ResetTokenExpiry = r.ResetTokenExpiry.Time
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

const selectUser = `
SELECT id, username, email, name, password_hash, profile_picture, role,
       reset_token, reset_token_expiry, created_at, updated_at, last_login
FROM "user"`

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string) error {
	rows, err := repo.db.QueryxContext(
		ctx, `SELECT username, email FROM "user" WHERE username = $1 OR email = $2`, username, email)
	if err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var uname, mail string
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if uname == username {
			return user.ErrUsernameExists
		}
		if mail == email {
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(rows.Err(), "checking uniqueness")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(
		ctx, `
INSERT INTO "user" (id, username, email, name, password_hash, profile_picture, role,
                    reset_token, reset_token_expiry, created_at, updated_at, last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		usr.ID, usr.Username, usr.Email, usr.Name, usr.PasswordHash, usr.ProfilePicture, usr.Role,
		usr.ResetToken, nullTime(usr.ResetTokenExpiry), usr.CreatedAt, usr.UpdatedAt, nullTime(usr.LastLogin),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	q := selectUser
	var args []interface{}
	if filter != nil && !filter.IsEmpty() {
		q += ` WHERE role = $1`
		args = append(args, filter.Role)
	}
	q += ` ORDER BY username`

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, selectUser+` WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, selectUser+` WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByUsernameAndEmail(ctx context.Context, username, email string) (user.User, error) {
	return repo.getUser(ctx, selectUser+` WHERE username = $1 AND email = $2`, username, email)
}

func (repo *userRepository) GetUserByResetToken(ctx context.Context, token string) (user.User, error) {
	return repo.getUser(ctx, selectUser+` WHERE reset_token = $1 AND reset_token <> ''`, token)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	res, err := repo.db.ExecContext(
		ctx, `
UPDATE "user"
SET name = $2, password_hash = $3, profile_picture = $4, role = $5,
    reset_token = $6, reset_token_expiry = $7, last_login = $8, updated_at = $9
WHERE id = $1`,
		usr.ID, usr.Name, usr.PasswordHash, usr.ProfilePicture, usr.Role, usr.ResetToken,
		nullTime(usr.ResetTokenExpiry), nullTime(usr.LastLogin), usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}

	usr := row.toUser()
	if err := repo.loadProgress(ctx, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// loadProgress attaches the user's completed-lesson set and mistake records.
func (repo *userRepository) loadProgress(ctx context.Context, usr *user.User) error {
	completed := make([]string, 0)
	err := repo.db.SelectContext(
		ctx, &completed,
		`SELECT lesson_id FROM user_completed_lesson WHERE user_id = $1 ORDER BY completed_at`, usr.ID)
	if err != nil {
		return errors.Wrap(err, "loading completed lessons")
	}

	mistakes := make([]user.MistakeRecord, 0)
	err = repo.db.SelectContext(
		ctx, &mistakes,
		`SELECT lesson_id, mistakes FROM user_lesson_mistake WHERE user_id = $1 ORDER BY lesson_id`, usr.ID)
	if err != nil {
		return errors.Wrap(err, "loading lesson mistakes")
	}

	usr.CompletedLessons = completed
	usr.LessonMistakes = mistakes
	return nil
}
