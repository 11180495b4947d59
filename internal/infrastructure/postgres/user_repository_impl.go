package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
)

// Unique index names from db/migrations.
const (
	emailUniqueIndex    = "users_email_key"
	nicknameUniqueIndex = "users_nickname_key"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, email, nickname, password_hash, first_name, last_name, bio,
		       profile_picture_url, github_profile_url, linkedin_profile_url,
		       role, email_verified, failed_login_attempts, is_locked,
		       last_login_at, created_at, updated_at`

type UserRepository struct {
	pool DB
	now  func() time.Time
}

func NewUserRepository(pool DB) *UserRepository {
	return &UserRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, email, nickname, password_hash, first_name, last_name, bio,
			profile_picture_url, github_profile_url, linkedin_profile_url,
			role, email_verified, failed_login_attempts, is_locked,
			last_login_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		u.ID, u.Email, u.Nickname, u.PasswordHash, u.FirstName, u.LastName, u.Bio,
		u.ProfilePictureURL, u.GithubProfileURL, u.LinkedinProfileURL,
		string(u.Role), u.EmailVerified, u.FailedLoginAttempt, u.IsLocked,
		u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateOf(err); dup != nil {
			return oops.Code("USER_DUPLICATE").With("email", u.Email).With("nickname", u.Nickname).Wrap(dup)
		}
		return oops.Code("USER_CREATE_FAILED").With("operation", "insert user").With("email", u.Email).Wrap(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(repository.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").With("id", id).Wrap(err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(repository.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").With("email", email).Wrap(err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(nickname) = lower($1))`, nickname).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_NICKNAME_LOOKUP_FAILED").With("nickname", nickname).Wrap(err)
	}
	return exists, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = r.now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, nickname = $2, password_hash = $3, first_name = $4, last_name = $5,
		    bio = $6, profile_picture_url = $7, github_profile_url = $8, linkedin_profile_url = $9,
		    updated_at = $10
		WHERE id = $11
	`,
		u.Email, u.Nickname, u.PasswordHash, u.FirstName, u.LastName,
		u.Bio, u.ProfilePictureURL, u.GithubProfileURL, u.LinkedinProfileURL,
		u.UpdatedAt, u.ID,
	)
	if err != nil {
		if dup := duplicateOf(err); dup != nil {
			return oops.Code("USER_DUPLICATE").With("id", u.ID).Wrap(dup)
		}
		return oops.Code("USER_UPDATE_FAILED").With("id", u.ID).Wrap(err)
	}
	if res.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", u.ID).Wrap(repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if res.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, opts repository.ListOptions) ([]*entity.User, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, oops.Code("USER_LIST_FAILED").With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0, opts.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, oops.Code("USER_LIST_FAILED").With("operation", "scan user row").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("USER_LIST_FAILED").With("operation", "iterate users").Wrap(err)
	}
	return users, total, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, oops.Code("USER_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}

func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, threshold int) (entity.LockoutState, error) {
	var s entity.LockoutState
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    is_locked = is_locked OR failed_login_attempts + 1 >= $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING failed_login_attempts, is_locked
	`, id, threshold, r.now()).Scan(&s.FailedAttempts, &s.IsLocked)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(repository.ErrNotFound)
	}
	if err != nil {
		return s, oops.Code("USER_LOGIN_FAILURE_FAILED").With("id", id).Wrap(err)
	}
	return s, nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string) error {
	now := r.now()
	return r.execOne(ctx, "USER_LOGIN_SUCCESS_FAILED", id, `
		UPDATE users
		SET failed_login_attempts = 0, last_login_at = $2, updated_at = $2
		WHERE id = $1
	`, id, now)
}

func (r *UserRepository) Unlock(ctx context.Context, id string) error {
	return r.execOne(ctx, "USER_UNLOCK_FAILED", id, `
		UPDATE users
		SET failed_login_attempts = 0, is_locked = FALSE, updated_at = $2
		WHERE id = $1
	`, id, r.now())
}

func (r *UserRepository) SetVerified(ctx context.Context, id string, role entity.Role) error {
	return r.execOne(ctx, "USER_VERIFY_FAILED", id, `
		UPDATE users
		SET email_verified = TRUE, role = $2, updated_at = $3
		WHERE id = $1
	`, id, string(role), r.now())
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role entity.Role) error {
	return r.execOne(ctx, "USER_SET_ROLE_FAILED", id, `
		UPDATE users SET role = $2, updated_at = $3 WHERE id = $1
	`, id, string(role), r.now())
}

func (r *UserRepository) execOne(ctx context.Context, code, id, sql string, args ...any) error {
	res, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return oops.Code(code).With("id", id).Wrap(err)
	}
	if res.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(repository.ErrNotFound)
	}
	return nil
}

// duplicateOf maps a unique violation on the email or nickname index to the
// matching repository sentinel.
func duplicateOf(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailUniqueIndex:
		return repository.ErrDuplicateEmail
	case nicknameUniqueIndex:
		return repository.ErrDuplicateNickname
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	if err := row.Scan(
		&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Bio,
		&u.ProfilePictureURL, &u.GithubProfileURL, &u.LinkedinProfileURL,
		&role, &u.EmailVerified, &u.FailedLoginAttempt, &u.IsLocked,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
