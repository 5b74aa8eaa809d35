package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	charmlog "github.com/charmbracelet/log"

	"github.com/iliyamo/writing-practice-api/internal/model"
	q "github.com/iliyamo/writing-practice-api/internal/queue"
	"github.com/iliyamo/writing-practice-api/internal/repository"
)

// TextService is the submission ledger.  Every operation is scoped to the
// calling user; the owner always comes from the authenticated identity.
type TextService struct {
	texts  *repository.TextRepo
	ideas  *repository.IdeaRepo
	events EventPublisher
	log    *charmlog.Logger
}

// NewTextService builds the ledger.  A nil events publishes nothing.
func NewTextService(texts *repository.TextRepo, ideas *repository.IdeaRepo, events EventPublisher, log *charmlog.Logger) *TextService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TextService{texts: texts, ideas: ideas, events: events, log: log}
}

type TextInput struct {
	IdeaID  uint64
	Content string
	Time    uint32
}

// TextListParams filters a caller's texts.  From and To bound created_at
// inclusively; either may be nil.
type TextListParams struct {
	Page   int
	Limit  int
	IdeaID uint64
	From   *time.Time
	To     *time.Time
}

// Create stores a text owned by ownerID.  repository.ErrIdeaNotFound when the
// idea does not exist.
func (s *TextService) Create(ctx context.Context, ownerID uint64, in TextInput) (*model.Text, error) {
	if err := s.requireIdea(ctx, in.IdeaID); err != nil {
		return nil, err
	}
	t := &model.Text{UserID: ownerID, IdeaID: in.IdeaID, Content: in.Content, Time: in.Time}
	if err := s.texts.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrIdeaNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create text: %w", err)
	}

	ev := q.TextSubmittedEvent{
		TextID:      t.ID,
		UserID:      t.UserID,
		IdeaID:      t.IdeaID,
		Minutes:     t.Time,
		Characters:  utf8.RuneCountInString(t.Content),
		SubmittedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if err := s.events.PublishTextSubmitted(ctx, ev); err != nil && s.log != nil {
		s.log.Warn("text.submitted not published", "text_id", t.ID, "err", err)
	}
	return t, nil
}

// Get returns a text the caller owns.  repository.ErrForbidden when it
// belongs to someone else.
func (s *TextService) Get(ctx context.Context, id, callerID uint64) (*model.Text, error) {
	t, err := s.texts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != callerID {
		return nil, repository.ErrForbidden
	}
	return t, nil
}

// List returns one page of the caller's texts, newest first.
func (s *TextService) List(ctx context.Context, callerID uint64, p TextListParams) (model.Page[model.Text], error) {
	page, limit := normalizePage(p.Page, p.Limit)
	items, total, err := s.texts.ListByOwner(ctx, repository.TextQuery{
		OwnerID: callerID,
		IdeaID:  p.IdeaID,
		From:    p.From,
		To:      p.To,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	})
	if err != nil {
		return model.Page[model.Text]{}, fmt.Errorf("list texts: %w", err)
	}
	return model.NewPage(items, total, page, limit), nil
}

// Update fully replaces content, time and idea of a text the caller owns.
func (s *TextService) Update(ctx context.Context, id, callerID uint64, in TextInput) (*model.Text, error) {
	if err := s.requireIdea(ctx, in.IdeaID); err != nil {
		return nil, err
	}
	t := &model.Text{ID: id, UserID: callerID, IdeaID: in.IdeaID, Content: in.Content, Time: in.Time}
	if err := s.texts.UpdateByIDAndOwner(ctx, t); err != nil {
		if isLedgerErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update text %d: %w", id, err)
	}
	return t, nil
}

// Delete removes a text the caller owns.
func (s *TextService) Delete(ctx context.Context, id, callerID uint64) error {
	if err := s.texts.DeleteByIDAndOwner(ctx, id, callerID); err != nil {
		if isLedgerErr(err) {
			return err
		}
		return fmt.Errorf("delete text %d: %w", id, err)
	}
	return nil
}

func (s *TextService) requireIdea(ctx context.Context, ideaID uint64) error {
	ok, err := s.ideas.Exists(ctx, ideaID)
	if err != nil {
		return fmt.Errorf("check idea %d: %w", ideaID, err)
	}
	if !ok {
		return repository.ErrIdeaNotFound
	}
	return nil
}

func isLedgerErr(err error) bool {
	return errors.Is(err, repository.ErrTextNotFound) ||
		errors.Is(err, repository.ErrForbidden) ||
		errors.Is(err, repository.ErrIdeaNotFound)
}
