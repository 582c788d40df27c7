package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/db"
	"github.com/AlibekovAA/storybooks/internal/user/domain"
)

const sqliteUserColumns = `id, google_id, display_name, first_name, last_name, image, created_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(conn *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: conn}
}

func (r *SQLiteRepository) UpsertByGoogleID(ctx context.Context, user domain.User) (domain.User, error) {
	start := time.Now()
	row := r.db.QueryRowContext(
		ctx,
		`INSERT INTO users (`+sqliteUserColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (google_id) DO UPDATE SET
			display_name = excluded.display_name,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			image = excluded.image
		RETURNING `+sqliteUserColumns,
		user.ID,
		user.GoogleID,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.Image,
		user.CreatedAt.UTC().UnixNano(),
	)

	stored, err := scanSQLiteUser(row)
	if err = db.HandleQueryError(constants.DriverSQLite, err, ErrUserNotFound, "upsert user", start); err != nil {
		return domain.User{}, err
	}
	return stored, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	start := time.Now()
	user, err := scanSQLiteUser(r.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id))
	if err = db.HandleQueryError(constants.DriverSQLite, err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func scanSQLiteUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.GoogleID, &u.DisplayName, &u.FirstName, &u.LastName, &u.Image, &createdAt); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	return u, nil
}
