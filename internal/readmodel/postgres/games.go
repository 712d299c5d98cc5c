// Package postgres implements the read-model stores on PostgreSQL. Every
// store works through DBTX so the same code serves both a plain *sql.DB for
// queries and the event store's *sql.Tx when projecting inside the append
// transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/arcadia-lab/project-arcadia/internal/game"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const gameColumns = `id, name, description, website, genres, platforms, mode, distribution,
		price, age_rating, status, rating, disk_size_gb,
		min_requirements, rec_requirements, developer, publisher,
		is_active, created_at, updated_at`

const queryGetGame = `
	SELECT ` + gameColumns + `
	FROM game_projections
	WHERE id = $1`

const queryUpsertGame = `
	INSERT INTO game_projections (` + gameColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		website = EXCLUDED.website,
		genres = EXCLUDED.genres,
		platforms = EXCLUDED.platforms,
		mode = EXCLUDED.mode,
		distribution = EXCLUDED.distribution,
		price = EXCLUDED.price,
		age_rating = EXCLUDED.age_rating,
		status = EXCLUDED.status,
		rating = EXCLUDED.rating,
		disk_size_gb = EXCLUDED.disk_size_gb,
		min_requirements = EXCLUDED.min_requirements,
		rec_requirements = EXCLUDED.rec_requirements,
		developer = EXCLUDED.developer,
		publisher = EXCLUDED.publisher,
		is_active = EXCLUDED.is_active,
		updated_at = EXCLUDED.updated_at`

// GameStore reads and writes the game_projections table.
type GameStore struct {
	db DBTX
}

func NewGameStore(db DBTX) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Get(ctx context.Context, id string) (*game.Projection, error) {
	row := s.db.QueryRowContext(ctx, queryGetGame, id)
	p, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, readmodel.ErrNotFound)
	}
	return p, err
}

func (s *GameStore) Upsert(ctx context.Context, p *game.Projection) error {
	var rating sql.NullFloat64
	if p.Rating != nil {
		rating = sql.NullFloat64{Float64: *p.Rating, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, queryUpsertGame,
		p.ID, p.Name, p.Description, p.Website,
		pq.Array(p.Genres), pq.Array(p.Platforms), p.Mode, p.Distribution,
		p.Price.String(), p.AgeRating, p.Status, rating, p.DiskSizeGB,
		p.MinimumRequirements, p.RecommendedRequirements, p.Developer, p.Publisher,
		p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert game projection %s: %w", p.ID, err)
	}
	return nil
}

// sortColumns whitelists the ORDER BY expressions; filter input never
// reaches the SQL text directly.
var sortColumns = map[string]string{
	readmodel.SortByName:      "name ASC",
	readmodel.SortByPriceAsc:  "price ASC",
	readmodel.SortByPriceDesc: "price DESC",
	readmodel.SortByRating:    "rating DESC NULLS LAST",
	readmodel.SortByCreatedAt: "created_at DESC",
}

func (s *GameStore) List(ctx context.Context, filter readmodel.GameFilter) ([]game.Projection, error) {
	filter = filter.Normalize()

	var (
		conds []string
		args  []any
	)
	if !filter.IncludeHidden {
		conds = append(conds, "is_active = TRUE")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	query := "SELECT " + gameColumns + " FROM game_projections"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + sortColumns[filter.SortBy]
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list game projections: %w", err)
	}
	defer rows.Close()

	var out []game.Projection
	for rows.Next() {
		p, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*game.Projection, error) {
	var (
		p      game.Projection
		price  string
		rating sql.NullFloat64
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Website,
		pq.Array(&p.Genres), pq.Array(&p.Platforms), &p.Mode, &p.Distribution,
		&price, &p.AgeRating, &p.Status, &rating, &p.DiskSizeGB,
		&p.MinimumRequirements, &p.RecommendedRequirements, &p.Developer, &p.Publisher,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", price, err)
	}
	if rating.Valid {
		p.Rating = &rating.Float64
	}
	return &p, nil
}
