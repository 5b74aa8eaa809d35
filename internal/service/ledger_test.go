package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/writing-practice-api/internal/logger"
	"github.com/iliyamo/writing-practice-api/internal/model"
	q "github.com/iliyamo/writing-practice-api/internal/queue"
	"github.com/iliyamo/writing-practice-api/internal/repository"
	"github.com/iliyamo/writing-practice-api/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []q.TextSubmittedEvent
	err    error
}

func (p *recordingPublisher) PublishTextSubmitted(_ context.Context, ev q.TextSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func newLedger(t *testing.T) (*TextService, *sql.DB, *recordingPublisher) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	pub := &recordingPublisher{}
	svc := NewTextService(repository.NewTextRepo(db), repository.NewIdeaRepo(db), pub, logger.Discard())
	return svc, db, pub
}

func TestLedger_CreatePublishes(t *testing.T) {
	svc, db, pub := newLedger(t)
	u := testutil.CreateUser(t, db, "a@x.com", model.RoleUser)
	i := testutil.CreateIdea(t, db, "ab", "cd")

	x, err := svc.Create(context.Background(), u.ID, TextInput{IdeaID: i.ID, Content: "héllo wörld", Time: 5})
	require.NoError(t, err)
	assert.Equal(t, u.ID, x.UserID)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, x.ID, ev.TextID)
	assert.Equal(t, i.ID, ev.IdeaID)
	assert.EqualValues(t, 5, ev.Minutes)
	assert.Equal(t, 11, ev.Characters)
	_, err = time.Parse(time.RFC3339, ev.SubmittedAt)
	assert.NoError(t, err)
}

func TestLedger_CreateSurvivesPublishFailure(t *testing.T) {
	svc, db, pub := newLedger(t)
	pub.err = errors.New("broker down")
	u := testutil.CreateUser(t, db, "a@x.com", model.RoleUser)
	i := testutil.CreateIdea(t, db, "ab", "cd")

	_, err := svc.Create(context.Background(), u.ID, TextInput{IdeaID: i.ID, Content: "0123456789", Time: 1})
	assert.NoError(t, err)
}

func TestLedger_CreateMissingIdea(t *testing.T) {
	svc, db, pub := newLedger(t)
	u := testutil.CreateUser(t, db, "a@x.com", model.RoleUser)

	_, err := svc.Create(context.Background(), u.ID, TextInput{IdeaID: 77, Content: "0123456789", Time: 1})
	assert.ErrorIs(t, err, repository.ErrIdeaNotFound)
	assert.Empty(t, pub.events)
}

func TestLedger_OwnerOnly(t *testing.T) {
	svc, db, _ := newLedger(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a@x.com", model.RoleUser)
	b := testutil.CreateUser(t, db, "b@x.com", model.RoleUser)
	i := testutil.CreateIdea(t, db, "ab", "cd")

	x, err := svc.Create(ctx, a.ID, TextInput{IdeaID: i.ID, Content: "0123456789", Time: 5})
	require.NoError(t, err)

	got, err := svc.Get(ctx, x.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, x.ID, got.ID)
	_, err = svc.Get(ctx, x.ID, b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = svc.Get(ctx, x.ID+10, a.ID)
	assert.ErrorIs(t, err, repository.ErrTextNotFound)

	upd, err := svc.Update(ctx, x.ID, a.ID, TextInput{IdeaID: i.ID, Content: "a longer draft", Time: 8})
	require.NoError(t, err)
	assert.Equal(t, "a longer draft", upd.Content)

	_, err = svc.Get(ctx, x.ID, b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden, "still forbidden after update")

	_, err = svc.Update(ctx, x.ID, b.ID, TextInput{IdeaID: i.ID, Content: "stolen draft", Time: 1})
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = svc.Update(ctx, x.ID, a.ID, TextInput{IdeaID: 999, Content: "0123456789", Time: 1})
	assert.ErrorIs(t, err, repository.ErrIdeaNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, x.ID, b.ID), repository.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, x.ID, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, x.ID, a.ID), repository.ErrTextNotFound)
}

func TestLedger_ListScopedToCaller(t *testing.T) {
	svc, db, _ := newLedger(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a@x.com", model.RoleUser)
	b := testutil.CreateUser(t, db, "b@x.com", model.RoleUser)
	i := testutil.CreateIdea(t, db, "ab", "cd")
	for k := 0; k < 3; k++ {
		testutil.CreateText(t, db, a.ID, i.ID, "0123456789", 1)
	}
	testutil.CreateText(t, db, b.ID, i.ID, "0123456789", 1)

	p, err := svc.List(ctx, a.ID, TextListParams{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.Total)
	assert.Equal(t, 2, p.TotalPages)
	assert.Len(t, p.Data, 2)
	for _, x := range p.Data {
		assert.Equal(t, a.ID, x.UserID)
	}
}
