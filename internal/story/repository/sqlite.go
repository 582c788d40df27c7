package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/db"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

const sqliteSelectStory = `SELECT s.id, s.title, s.body, s.status, s.owner_id, COALESCE(u.display_name, ''), s.created_at
	FROM stories s
	LEFT JOIN users u ON u.id = s.owner_id`

const sqliteOrderNewest = ` ORDER BY s.created_at DESC, s.rowid DESC`

// SQLiteRepository stores created_at as Unix nanoseconds. Title search uses
// the contains_fold function registered by db.OpenSQLite.
type SQLiteRepository struct {
	db        *sql.DB
	log       *logger.Logger
	writeLock sync.Mutex
}

func NewSQLiteRepository(conn *sql.DB, log *logger.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: conn, log: log}
}

func (r *SQLiteRepository) Create(ctx context.Context, story domain.Story) error {
	story, err := prepareCreate(story)
	if err != nil {
		return err
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	start := time.Now()
	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO stories (id, title, body, status, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		story.ID,
		story.Title,
		story.Body,
		string(story.Status),
		story.OwnerID,
		story.CreatedAt.UTC().UnixNano(),
	)
	return db.HandleExecError(constants.DriverSQLite, err, "create story", start)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (domain.Story, error) {
	start := time.Now()
	story, err := scanSQLiteStory(r.db.QueryRowContext(ctx, sqliteSelectStory+` WHERE s.id = ?`, id))
	if err = db.HandleQueryError(constants.DriverSQLite, err, ErrStoryNotFound, "get story", start); err != nil {
		return domain.Story{}, err
	}
	return story, nil
}

func (r *SQLiteRepository) ListPublic(ctx context.Context) ([]domain.Story, error) {
	return r.list(ctx, "list public stories",
		sqliteSelectStory+` WHERE s.status = ?`+sqliteOrderNewest,
		string(domain.StatusPublic))
}

func (r *SQLiteRepository) ListPublicByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	return r.list(ctx, "list public stories by owner",
		sqliteSelectStory+` WHERE s.status = ? AND s.owner_id = ?`+sqliteOrderNewest,
		string(domain.StatusPublic), ownerID)
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Story, error) {
	return r.list(ctx, "list owned stories",
		sqliteSelectStory+` WHERE s.owner_id = ?`+sqliteOrderNewest,
		ownerID)
}

func (r *SQLiteRepository) SearchPublicByTitle(ctx context.Context, query string) ([]domain.Story, error) {
	return r.list(ctx, "search public stories",
		sqliteSelectStory+` WHERE s.status = ? AND `+db.SQLiteContainsFold+`(s.title, ?)`+sqliteOrderNewest,
		string(domain.StatusPublic), query)
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, patch domain.Patch) (domain.Story, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	start := time.Now()
	var updated domain.Story

	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		var err error
		updated, err = r.updateTx(ctx, id, patch)
		return err
	})
	err = storageError(err, func(err error) error {
		return db.HandleQueryError(constants.DriverSQLite, err, ErrStoryNotFound, "update story", start)
	})
	if err != nil {
		return domain.Story{}, err
	}
	db.MeasureQueryDuration(constants.DriverSQLite, "update story", start)
	return updated, nil
}

func (r *SQLiteRepository) updateTx(ctx context.Context, id string, patch domain.Patch) (_ domain.Story, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Story{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := scanSQLiteStory(tx.QueryRowContext(ctx, sqliteSelectStory+` WHERE s.id = ?`, id))
	if err != nil {
		return domain.Story{}, err
	}

	merged, err := mergePatch(current, patch)
	if err != nil {
		return domain.Story{}, err
	}

	if _, err = tx.ExecContext(
		ctx,
		`UPDATE stories SET title = ?, body = ?, status = ? WHERE id = ?`,
		merged.Title,
		merged.Body,
		string(merged.Status),
		id,
	); err != nil {
		return domain.Story{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Story{}, fmt.Errorf("commit: %w", err)
	}
	return merged, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	start := time.Now()
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err = db.HandleExecError(constants.DriverSQLite, err, "delete story", start); err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrStoryNotFound
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, operation, query string, args ...any) ([]domain.Story, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.HandleQueryError(constants.DriverSQLite, err, ErrStoryNotFound, operation, start)
	}
	defer rows.Close()

	stories := make([]domain.Story, 0)
	for rows.Next() {
		story, err := scanSQLiteStory(rows)
		if err != nil {
			return nil, db.HandleQueryError(constants.DriverSQLite, err, ErrStoryNotFound, operation, start)
		}
		stories = append(stories, story)
	}

	if err := db.HandleQueryError(constants.DriverSQLite, rows.Err(), ErrStoryNotFound, operation, start); err != nil {
		return nil, err
	}
	return stories, nil
}

func scanSQLiteStory(row rowScanner) (domain.Story, error) {
	var (
		s         domain.Story
		status    string
		createdAt int64
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Body, &status, &s.OwnerID, &s.OwnerName, &createdAt); err != nil {
		return domain.Story{}, err
	}
	s.Status = domain.Status(status)
	s.CreatedAt = time.Unix(0, createdAt).UTC()
	return s, nil
}
