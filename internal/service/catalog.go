package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	charmlog "github.com/charmbracelet/log"

	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/repository"
)

// CacheInvalidator drops cached idea reads after the catalog changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// IdeaService is the prompt catalog.  Writes are admin-only; the route layer
// enforces that before calling in.
type IdeaService struct {
	ideas *repository.IdeaRepo
	cache CacheInvalidator
	log   *charmlog.Logger
	// randN returns a uniform value in [0, n).
	randN func(n int64) int64
}

// NewIdeaService builds the catalog.  cache may be nil.
func NewIdeaService(ideas *repository.IdeaRepo, cache CacheInvalidator, log *charmlog.Logger) *IdeaService {
	return &IdeaService{ideas: ideas, cache: cache, log: log, randN: rand.Int64N}
}

type IdeaInput struct {
	Title   string
	Content string
}

type IdeaListParams struct {
	Page   int
	Limit  int
	Search string
}

func (s *IdeaService) Create(ctx context.Context, in IdeaInput) (*model.Idea, error) {
	i := &model.Idea{Title: in.Title, Content: in.Content}
	if err := s.ideas.Create(ctx, i); err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}
	s.invalidate(ctx)
	return i, nil
}

// Update replaces title and content; repository.ErrIdeaNotFound when absent.
func (s *IdeaService) Update(ctx context.Context, id uint64, in IdeaInput) (*model.Idea, error) {
	i := &model.Idea{ID: id, Title: in.Title, Content: in.Content}
	if err := s.ideas.Update(ctx, i); err != nil {
		if errors.Is(err, repository.ErrIdeaNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update idea %d: %w", id, err)
	}
	s.invalidate(ctx)
	return i, nil
}

// Delete removes an idea.  repository.ErrConflict while texts reference it.
func (s *IdeaService) Delete(ctx context.Context, id uint64) error {
	if err := s.ideas.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrIdeaNotFound) || errors.Is(err, repository.ErrConflict) {
			return err
		}
		return fmt.Errorf("delete idea %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *IdeaService) Get(ctx context.Context, id uint64) (*model.Idea, error) {
	return s.ideas.GetByID(ctx, id)
}

// List returns one page of ideas in id order, optionally filtered by a
// case-insensitive substring of content.
func (s *IdeaService) List(ctx context.Context, p IdeaListParams) (model.Page[model.Idea], error) {
	page, limit := normalizePage(p.Page, p.Limit)
	items, total, err := s.ideas.Search(ctx, repository.IdeaQuery{
		Search: p.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return model.Page[model.Idea]{}, fmt.Errorf("list ideas: %w", err)
	}
	return model.NewPage(items, total, page, limit), nil
}

// Random picks one idea uniformly.  If a concurrent delete shrinks the
// catalog between the count and the fetch, it counts again once.
func (s *IdeaService) Random(ctx context.Context) (*model.Idea, error) {
	for attempt := 0; attempt < 2; attempt++ {
		n, err := s.ideas.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count ideas: %w", err)
		}
		if n == 0 {
			return nil, ErrNoIdeas
		}
		i, err := s.ideas.AtOffset(ctx, s.randN(n))
		if err == nil {
			return i, nil
		}
		if !errors.Is(err, repository.ErrIdeaNotFound) {
			return nil, fmt.Errorf("fetch random idea: %w", err)
		}
	}
	return nil, ErrNoIdeas
}

func (s *IdeaService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil && s.log != nil {
		s.log.Warn("idea cache invalidation failed", "err", err)
	}
}
