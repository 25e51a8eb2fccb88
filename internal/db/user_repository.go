package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/example/inventory-backend/internal/models"
)

const usersTable = "users"

var userColumns = []string{
	"id", "firebase_uid", "email", "username", "photo_url",
	"email_verified_at", "status", "created_at", "updated_at",
}

// PostgresUserRepository implements UserRepository.
type PostgresUserRepository struct {
	pool Pool
}

// NewPostgresUserRepository creates a new user repository.
func NewPostgresUserRepository(pool Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create inserts a user and re-reads it by its generated id. A duplicate
// firebase_uid returns ErrAlreadyExists.
func (r *PostgresUserRepository) Create(ctx context.Context, in models.NewUser) (*models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	status := in.Status
	if status == "" {
		status = models.UserStatusActive
	}

	query, args, err := psql.Insert(usersTable).
		Columns("firebase_uid", "email", "username", "photo_url", "email_verified_at", "status").
		Values(in.FirebaseUID, in.Email, in.Username, in.PhotoURL, in.EmailVerifiedAt, status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user insert: %w", err)
	}

	var id int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, mapError(err, "user", in.FirebaseUID)
	}

	return getUser(ctx, conn, squirrel.Eq{"id": id}, id)
}

// GetByID returns ErrNotFound when no row matches.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getUser(ctx, conn, squirrel.Eq{"id": id}, id)
}

// GetByFirebaseUID returns the user mirroring an external account.
func (r *PostgresUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getUser(ctx, conn, squirrel.Eq{"firebase_uid": uid}, uid)
}

// TouchLogin bumps updated_at and returns the row.
func (r *PostgresUserRepository) TouchLogin(ctx context.Context, uid string) (*models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query, args, err := psql.Update(usersTable).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"firebase_uid": uid}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user touch: %w", err)
	}
	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return nil, mapError(err, "user", uid)
	}

	return getUser(ctx, conn, squirrel.Eq{"firebase_uid": uid}, uid)
}

// Update writes the set fields of patch. An empty patch returns the row unchanged.
func (r *PostgresUserRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if patch.IsEmpty() {
		return getUser(ctx, conn, squirrel.Eq{"id": id}, id)
	}

	builder := psql.Update(usersTable)
	if patch.Username != nil {
		builder = builder.Set("username", *patch.Username)
	}
	if patch.PhotoURL != nil {
		builder = builder.Set("photo_url", *patch.PhotoURL)
	}
	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	query, args, err := builder.
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user update: %w", err)
	}

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	return getUser(ctx, conn, squirrel.Eq{"id": id}, id)
}

// Delete returns ErrNotFound when no row was removed.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	query, args, err := psql.Delete(usersTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build user delete: %w", err)
	}

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "user", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

func getUser(ctx context.Context, conn Conn, where squirrel.Eq, key any) (*models.User, error) {
	query, args, err := psql.Select(userColumns...).From(usersTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user select: %w", err)
	}

	u, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "user", key)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FirebaseUID, &u.Email, &u.Username, &u.PhotoURL,
		&u.EmailVerifiedAt, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
