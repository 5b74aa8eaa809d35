// Package repository contains data access logic separated from HTTP handlers.
// This file holds the idea catalog queries: CRUD, paginated search and the
// count/offset lookups used for random sampling.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/writing-practice-api/internal/model"
)

// ErrIdeaNotFound is returned when an idea cannot be found in the DB.
var ErrIdeaNotFound = errors.New("idea not found")

// IdeaRepo encapsulates all database queries related to ideas.
type IdeaRepo struct {
	db *sql.DB
}

func NewIdeaRepo(db *sql.DB) *IdeaRepo {
	return &IdeaRepo{db: db}
}

const ideaColumns = "id, title, content, created_at, updated_at"

// IdeaQuery defines the search term and pagination for listing ideas.
type IdeaQuery struct {
	Search string
	Limit  int
	Offset int
}

// Create inserts a new idea and fills in its ID and timestamps.
func (r *IdeaRepo) Create(ctx context.Context, i *model.Idea) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ideas (title, content, created_at, updated_at) VALUES (?, ?, ?, ?)",
		i.Title, i.Content, ts, ts)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	i.ID = uint64(id)
	i.CreatedAt, i.UpdatedAt = ts, ts
	return nil
}

// GetByID fetches an idea; ErrIdeaNotFound when absent.
func (r *IdeaRepo) GetByID(ctx context.Context, id uint64) (*model.Idea, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+ideaColumns+" FROM ideas WHERE id = ?", id)
	return scanIdea(row)
}

// Exists reports whether an idea with id is present.
func (r *IdeaRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM ideas WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Update replaces title and content.  It returns ErrIdeaNotFound when no row matched.
func (r *IdeaRepo) Update(ctx context.Context, i *model.Idea) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE ideas SET title = ?, content = ?, updated_at = ? WHERE id = ?",
		i.Title, i.Content, ts, i.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIdeaNotFound
	}
	updated, err := r.GetByID(ctx, i.ID)
	if err != nil {
		return err
	}
	*i = *updated
	return nil
}

// Delete removes an idea unless texts still reference it.  The reference
// check and the delete share one transaction; a foreign-key violation from
// the store (a text inserted concurrently) is reported as ErrConflict too.
func (r *IdeaRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var refs int64
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM texts WHERE idea_id = ?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
	if err != nil {
		if isForeignKey(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIdeaNotFound
	}
	return nil
}

// Search returns one page of ideas ordered by id plus the total match count.
// Search is a case-insensitive substring match on content.
func (r *IdeaRepo) Search(ctx context.Context, q IdeaQuery) ([]model.Idea, int64, error) {
	cond := "1=1"
	args := []any{}
	if term := strings.TrimSpace(q.Search); term != "" {
		cond = "LOWER(content) LIKE ? ESCAPE '!'"
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ideas WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + ideaColumns + " FROM ideas WHERE " + cond + " ORDER BY id ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Idea, 0, q.Limit)
	for rows.Next() {
		var i model.Idea
		if err := rows.Scan(&i.ID, &i.Title, &i.Content, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, 0, err
		}
		i.CreatedAt, i.UpdatedAt = i.CreatedAt.UTC(), i.UpdatedAt.UTC()
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Count returns the number of ideas in the catalog.
func (r *IdeaRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ideas").Scan(&n)
	return n, err
}

// AtOffset returns the idea at zero-based position offset in id order.
func (r *IdeaRepo) AtOffset(ctx context.Context, offset int64) (*model.Idea, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas ORDER BY id ASC LIMIT 1 OFFSET ?", offset)
	return scanIdea(row)
}

func scanIdea(row *sql.Row) (*model.Idea, error) {
	var i model.Idea
	if err := row.Scan(&i.ID, &i.Title, &i.Content, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdeaNotFound
		}
		return nil, err
	}
	i.CreatedAt, i.UpdatedAt = i.CreatedAt.UTC(), i.UpdatedAt.UTC()
	return &i, nil
}

// escapeLike escapes LIKE wildcards with '!' so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
