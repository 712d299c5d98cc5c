package library

import (
	"context"
	"testing"

	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeEntryStore struct {
	recs map[string]Projection
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{recs: make(map[string]Projection)}
}

func (s *fakeEntryStore) Get(_ context.Context, id string) (*Projection, error) {
	p, ok := s.recs[id]
	if !ok {
		return nil, readmodel.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *fakeEntryStore) Upsert(_ context.Context, p *Projection) error {
	s.recs[p.EntryID] = *p
	return nil
}

func projectHistory(t *testing.T, p *Projector, envs []eventsourcing.Envelope) {
	t.Helper()
	for _, env := range envs {
		require.NoError(t, p.ApplyEnvelope(context.Background(), env))
	}
}

func TestProjector_PurchaseBuildsRecord(t *testing.T) {
	e := newTestEntry(t)

	store := newFakeEntryStore()
	projectHistory(t, NewProjector(store), e.UncommittedEvents())

	rec, err := store.Get(context.Background(), e.EntityID())
	require.NoError(t, err)
	require.Equal(t, "user-1", rec.UserID)
	require.Equal(t, "Test Game", rec.GameName)
	require.True(t, rec.PricePaid.Equal(decimal.NewFromFloat(59.99)))
	require.True(t, rec.IsActive)
	require.Zero(t, rec.PlaytimeMinutes)
}

func TestProjector_PlaytimeAccumulates(t *testing.T) {
	e := newTestEntry(t)
	require.NoError(t, e.IncreasePlaytime(30))
	require.NoError(t, e.IncreasePlaytime(45))

	store := newFakeEntryStore()
	projectHistory(t, NewProjector(store), e.UncommittedEvents())

	rec, err := store.Get(context.Background(), e.EntityID())
	require.NoError(t, err)
	require.Equal(t, 75, rec.PlaytimeMinutes)
}

func TestProjector_RepurchaseKeepsPlaytimeAndPurchaseDate(t *testing.T) {
	e := newTestEntry(t)
	require.NoError(t, e.IncreasePlaytime(60))
	require.NoError(t, e.Remove("refund"))
	require.NoError(t, e.Repurchase(decimal.NewFromFloat(19.99), "pay-2", "card"))

	store := newFakeEntryStore()
	projectHistory(t, NewProjector(store), e.UncommittedEvents())

	history := e.UncommittedEvents()
	rec, err := store.Get(context.Background(), e.EntityID())
	require.NoError(t, err)
	require.True(t, rec.IsActive)
	require.Equal(t, 60, rec.PlaytimeMinutes)
	require.True(t, rec.PricePaid.Equal(decimal.NewFromFloat(19.99)))
	require.Equal(t, "pay-2", rec.PaymentID)
	require.Equal(t, history[0].OccurredAt, rec.PurchasedAt)
	require.Equal(t, history[len(history)-1].OccurredAt, rec.UpdatedAt)
}

func TestProjector_UpdateForUnknownRecordFails(t *testing.T) {
	e := newTestEntry(t)
	e.MarkCommitted()
	require.NoError(t, e.IncreasePlaytime(10))

	err := NewProjector(newFakeEntryStore()).
		ApplyEnvelope(context.Background(), e.UncommittedEvents()[0])
	require.ErrorIs(t, err, readmodel.ErrNotFound)
}
