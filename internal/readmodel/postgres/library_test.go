package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arcadia-lab/project-arcadia/internal/library"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func libraryRowColumns() []string {
	return []string{
		"entry_id", "user_id", "game_id", "game_name", "price_paid", "payment_id",
		"playtime_minutes", "is_active", "purchased_at", "updated_at",
	}
}

func TestLibraryStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryGetEntry)).
		WithArgs("library:u1:g1").
		WillReturnRows(sqlmock.NewRows(libraryRowColumns()).
			AddRow("library:u1:g1", "u1", "g1", "Test Game", "59.99", "pay-1", 120, true, at, at))

	store := NewLibraryStore(db)
	p, err := store.Get(context.Background(), "library:u1:g1")
	require.NoError(t, err)
	require.Equal(t, "u1", p.UserID)
	require.True(t, p.PricePaid.Equal(decimal.NewFromFloat(59.99)))
	require.Equal(t, 120, p.PlaytimeMinutes)
	require.True(t, p.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryGetEntry)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(libraryRowColumns()))

	store := NewLibraryStore(db)
	_, err = store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, readmodel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryStore_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p := &library.Projection{
		EntryID:         "library:u1:g1",
		UserID:          "u1",
		GameID:          "g1",
		GameName:        "Test Game",
		PricePaid:       decimal.NewFromFloat(59.99),
		PaymentID:       "pay-1",
		PlaytimeMinutes: 120,
		IsActive:        true,
		PurchasedAt:     at,
		UpdatedAt:       at,
	}

	mock.ExpectExec(regexp.QuoteMeta(queryUpsertEntry)).
		WithArgs("library:u1:g1", "u1", "g1", "Test Game", "59.99", "pay-1", 120, true, at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewLibraryStore(db)
	require.NoError(t, store.Upsert(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryStore_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryListByUser)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(libraryRowColumns()).
			AddRow("library:u1:g2", "u1", "g2", "Newer Game", "19.99", "pay-2", 0, true, at.Add(time.Hour), at.Add(time.Hour)).
			AddRow("library:u1:g1", "u1", "g1", "Older Game", "59.99", "pay-1", 120, true, at, at))

	store := NewLibraryStore(db)
	entries, err := store.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Newer Game", entries[0].GameName)
	require.NoError(t, mock.ExpectationsWereMet())
}
