package repository

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/db"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

const pgSelectStory = `SELECT s.id, s.title, s.body, s.status, s.owner_id, COALESCE(u.display_name, ''), s.created_at
	FROM stories s
	LEFT JOIN users u ON u.id = s.owner_id`

const pgOrderNewest = ` ORDER BY s.created_at DESC, s.id DESC`

const pgSearchPublic = pgSelectStory + ` WHERE s.status = $1 AND s.title ILIKE '%' || $2 || '%' ESCAPE '\'` + pgOrderNewest

// pgQuerier is the part of *pgxpool.Pool used outside transactions.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool pgQuerier
	tx   *db.PgTxManager
	log  *logger.Logger
}

func NewPgRepository(pool *pgxpool.Pool, log *logger.Logger) *PgRepository {
	return &PgRepository{pool: pool, tx: db.NewPgTxManager(pool), log: log}
}

func (r *PgRepository) Create(ctx context.Context, story domain.Story) error {
	story, err := prepareCreate(story)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO stories (id, title, body, status, owner_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		story.ID,
		story.Title,
		story.Body,
		string(story.Status),
		story.OwnerID,
		story.CreatedAt,
	)
	return db.HandleExecError(constants.DriverPostgres, err, "create story", start)
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (domain.Story, error) {
	start := time.Now()
	story, err := scanPgStory(r.pool.QueryRow(ctx, pgSelectStory+` WHERE s.id = $1`, id))
	if err = db.HandleQueryError(constants.DriverPostgres, err, ErrStoryNotFound, "get story", start); err != nil {
		return domain.Story{}, err
	}
	return story, nil
}

func (r *PgRepository) ListPublic(ctx context.Context) ([]domain.Story, error) {
	return r.list(ctx, "list public stories",
		pgSelectStory+` WHERE s.status = $1`+pgOrderNewest,
		string(domain.StatusPublic))
}

func (r *PgRepository) ListPublicByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	return r.list(ctx, "list public stories by owner",
		pgSelectStory+` WHERE s.status = $1 AND s.owner_id = $2`+pgOrderNewest,
		string(domain.StatusPublic), ownerID)
}

func (r *PgRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	return r.list(ctx, "list owned stories",
		pgSelectStory+` WHERE s.owner_id = $1`+pgOrderNewest,
		ownerID)
}

func (r *PgRepository) SearchPublicByTitle(ctx context.Context, query string) ([]domain.Story, error) {
	return r.list(ctx, "search public stories", pgSearchPublic, string(domain.StatusPublic), escapeLike(query))
}

func (r *PgRepository) Update(ctx context.Context, id string, patch domain.Patch) (domain.Story, error) {
	start := time.Now()
	var updated domain.Story

	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		return r.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			current, err := scanPgStory(tx.QueryRow(ctx, pgSelectStory+` WHERE s.id = $1 FOR UPDATE OF s`, id))
			if err != nil {
				return err
			}

			merged, err := mergePatch(current, patch)
			if err != nil {
				return err
			}

			_, err = tx.Exec(
				ctx,
				`UPDATE stories SET title = $2, body = $3, status = $4 WHERE id = $1`,
				id,
				merged.Title,
				merged.Body,
				string(merged.Status),
			)
			if err != nil {
				return err
			}

			updated = merged
			return nil
		})
	})
	err = storageError(err, func(err error) error {
		return db.HandleQueryError(constants.DriverPostgres, err, ErrStoryNotFound, "update story", start)
	})
	if err != nil {
		return domain.Story{}, err
	}
	db.MeasureQueryDuration(constants.DriverPostgres, "update story", start)
	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err = db.HandleExecError(constants.DriverPostgres, err, "delete story", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStoryNotFound
	}
	return nil
}

func (r *PgRepository) list(ctx context.Context, operation, query string, args ...any) ([]domain.Story, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.HandleQueryError(constants.DriverPostgres, err, ErrStoryNotFound, operation, start)
	}
	defer rows.Close()

	stories := make([]domain.Story, 0)
	for rows.Next() {
		story, err := scanPgStory(rows)
		if err != nil {
			return nil, db.HandleQueryError(constants.DriverPostgres, err, ErrStoryNotFound, operation, start)
		}
		stories = append(stories, story)
	}

	if err := db.HandleQueryError(constants.DriverPostgres, rows.Err(), ErrStoryNotFound, operation, start); err != nil {
		return nil, err
	}
	return stories, nil
}

func scanPgStory(row rowScanner) (domain.Story, error) {
	var (
		s      domain.Story
		status string
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Body, &status, &s.OwnerID, &s.OwnerName, &s.CreatedAt); err != nil {
		return domain.Story{}, err
	}
	s.Status = domain.Status(status)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}
