package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/db"
	"github.com/AlibekovAA/storybooks/internal/user/domain"
)

const pgUserColumns = `id, google_id, display_name, first_name, last_name, image, created_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) UpsertByGoogleID(ctx context.Context, user domain.User) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (`+pgUserColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (google_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			image = EXCLUDED.image
		RETURNING `+pgUserColumns,
		user.ID,
		user.GoogleID,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.Image,
		user.CreatedAt,
	)

	stored, err := scanPgUser(row)
	if err = db.HandleQueryError(constants.DriverPostgres, err, ErrUserNotFound, "upsert user", start); err != nil {
		return domain.User{}, err
	}
	return stored, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	start := time.Now()
	user, err := scanPgUser(r.pool.QueryRow(ctx, `SELECT `+pgUserColumns+` FROM users WHERE id = $1`, id))
	if err = db.HandleQueryError(constants.DriverPostgres, err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func scanPgUser(row rowScanner) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.GoogleID, &u.DisplayName, &u.FirstName, &u.LastName, &u.Image, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
