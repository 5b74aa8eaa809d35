package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/writing-practice-api/internal/model"
)

// ErrTextNotFound indicates that a text was not located in the DB.
var ErrTextNotFound = errors.New("text not found")

// TextRepo manages persistence for texts.  Every mutating query is scoped by
// both id and owner so the ownership check and the write are one statement.
type TextRepo struct {
	db *sql.DB
}

func NewTextRepo(db *sql.DB) *TextRepo {
	return &TextRepo{db: db}
}

const textColumns = "id, user_id, idea_id, content, time, created_at, updated_at"

// TextQuery defines filters and pagination for listing one owner's texts.
// Zero values disable a filter.
type TextQuery struct {
	OwnerID uint64
	IdeaID  uint64
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// Create inserts a text.  A missing idea or user surfaces as ErrIdeaNotFound
// through the foreign key, covering an idea deleted after the caller checked it.
func (r *TextRepo) Create(ctx context.Context, t *model.Text) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO texts (user_id, idea_id, content, time, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		t.UserID, t.IdeaID, t.Content, t.Time, ts, ts)
	if err != nil {
		if isForeignKey(err) {
			return ErrIdeaNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt, t.UpdatedAt = ts, ts
	return nil
}

// GetByID fetches a text regardless of owner.  Callers decide whether the
// owner matches so they can tell 403 from 404.
func (r *TextRepo) GetByID(ctx context.Context, id uint64) (*model.Text, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+textColumns+" FROM texts WHERE id = ?", id)
	return scanText(row)
}

// UpdateByIDAndOwner replaces content, time and idea on a text owned by
// ownerID.  When nothing matched it returns ErrTextNotFound if the text is
// absent and ErrForbidden if it belongs to someone else.
func (r *TextRepo) UpdateByIDAndOwner(ctx context.Context, t *model.Text) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE texts SET content = ?, time = ?, idea_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Content, t.Time, t.IdeaID, ts, t.ID, t.UserID)
	if err != nil {
		if isForeignKey(err) {
			return ErrIdeaNotFound
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missOrForbidden(ctx, t.ID)
	}
	updated, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// DeleteByIDAndOwner removes a text owned by ownerID.  Error semantics match
// UpdateByIDAndOwner; it never reports success for a row it did not delete.
func (r *TextRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM texts WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missOrForbidden(ctx, id)
	}
	return nil
}

// missOrForbidden explains why an owner-scoped write matched zero rows.
func (r *TextRepo) missOrForbidden(ctx context.Context, id uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM texts WHERE id = ?", id).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrTextNotFound
	case err != nil:
		return err
	default:
		return ErrForbidden
	}
}

// ListByOwner returns one page of an owner's texts, newest first, and the
// total number matching the filters.
func (r *TextRepo) ListByOwner(ctx context.Context, q TextQuery) ([]model.Text, int64, error) {
	where := []string{"user_id = ?"}
	args := []any{q.OwnerID}
	if q.IdeaID > 0 {
		where = append(where, "idea_id = ?")
		args = append(args, q.IdeaID)
	}
	if q.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, q.To.UTC())
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM texts WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + textColumns + " FROM texts WHERE " + cond +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Text, 0, q.Limit)
	for rows.Next() {
		var t model.Text
		if err := rows.Scan(&t.ID, &t.UserID, &t.IdeaID, &t.Content, &t.Time, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountByIdea returns how many texts reference ideaID.
func (r *TextRepo) CountByIdea(ctx context.Context, ideaID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM texts WHERE idea_id = ?", ideaID).Scan(&n)
	return n, err
}

func scanText(row *sql.Row) (*model.Text, error) {
	var t model.Text
	if err := row.Scan(&t.ID, &t.UserID, &t.IdeaID, &t.Content, &t.Time, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTextNotFound
		}
		return nil, err
	}
	t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return &t, nil
}
