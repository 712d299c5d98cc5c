package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcadia-lab/project-arcadia/internal/library"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/shopspring/decimal"
)

const libraryColumns = `entry_id, user_id, game_id, game_name, price_paid, payment_id,
		playtime_minutes, is_active, purchased_at, updated_at`

const queryGetEntry = `
	SELECT ` + libraryColumns + `
	FROM library_projections
	WHERE entry_id = $1`

const queryUpsertEntry = `
	INSERT INTO library_projections (` + libraryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (entry_id) DO UPDATE SET
		game_name = EXCLUDED.game_name,
		price_paid = EXCLUDED.price_paid,
		payment_id = EXCLUDED.payment_id,
		playtime_minutes = EXCLUDED.playtime_minutes,
		is_active = EXCLUDED.is_active,
		updated_at = EXCLUDED.updated_at`

const queryListByUser = `
	SELECT ` + libraryColumns + `
	FROM library_projections
	WHERE user_id = $1 AND is_active = TRUE
	ORDER BY purchased_at DESC`

// LibraryStore reads and writes the library_projections table.
type LibraryStore struct {
	db DBTX
}

func NewLibraryStore(db DBTX) *LibraryStore {
	return &LibraryStore{db: db}
}

func (s *LibraryStore) Get(ctx context.Context, entryID string) (*library.Projection, error) {
	row := s.db.QueryRowContext(ctx, queryGetEntry, entryID)
	p, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("library entry %s: %w", entryID, readmodel.ErrNotFound)
	}
	return p, err
}

func (s *LibraryStore) Upsert(ctx context.Context, p *library.Projection) error {
	_, err := s.db.ExecContext(ctx, queryUpsertEntry,
		p.EntryID, p.UserID, p.GameID, p.GameName, p.PricePaid.String(), p.PaymentID,
		p.PlaytimeMinutes, p.IsActive, p.PurchasedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert library projection %s: %w", p.EntryID, err)
	}
	return nil
}

func (s *LibraryStore) ListByUser(ctx context.Context, userID string) ([]library.Projection, error) {
	rows, err := s.db.QueryContext(ctx, queryListByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list library of user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []library.Projection
	for rows.Next() {
		p, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanEntry(row scanner) (*library.Projection, error) {
	var (
		p     library.Projection
		price string
	)
	err := row.Scan(
		&p.EntryID, &p.UserID, &p.GameID, &p.GameName, &price, &p.PaymentID,
		&p.PlaytimeMinutes, &p.IsActive, &p.PurchasedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PricePaid, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", price, err)
	}
	return &p, nil
}
