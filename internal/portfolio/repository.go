package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/database"
)

// ErrNotFound is returned when a portfolio or holding does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS holdings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	portfolio_id TEXT NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
	ticker TEXT NOT NULL,
	shares REAL NOT NULL,
	cost_basis REAL NOT NULL DEFAULT 0,
	added_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_holdings_portfolio ON holdings(portfolio_id);
`

// Repository handles portfolio and holding database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Init creates the tables when they do not exist yet.
func (r *Repository) Init() error {
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create portfolio schema: %w", err)
	}
	return nil
}

// CreatePortfolio inserts a new empty portfolio and returns it.
func (r *Repository) CreatePortfolio(name string) (*Portfolio, error) {
	p := &Portfolio{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(
		"INSERT INTO portfolios (id, name, created_at) VALUES (?, ?, ?)",
		p.ID, p.Name, p.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return p, nil
}

// GetPortfolio returns one portfolio by id.
func (r *Repository) GetPortfolio(id string) (*Portfolio, error) {
	var p Portfolio
	var createdAt int64
	err := r.db.QueryRow(
		"SELECT id, name, created_at FROM portfolios WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}

// ListPortfolios returns all portfolios, newest first.
func (r *Repository) ListPortfolios() ([]Portfolio, error) {
	rows, err := r.db.Query("SELECT id, name, created_at FROM portfolios ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}

// DeletePortfolio removes a portfolio and, via the foreign key cascade, its
// holdings.
func (r *Repository) DeletePortfolio(id string) error {
	result, err := r.db.Exec("DELETE FROM portfolios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddHolding inserts a holding. The ticker is uppercased on insert. The
// existence check and the insert share a transaction so a concurrent
// portfolio delete cannot slip between them.
func (r *Repository) AddHolding(portfolioID, ticker string, shares, costBasis float64) (*Holding, error) {
	h := &Holding{
		PortfolioID: portfolioID,
		Ticker:      strings.ToUpper(strings.TrimSpace(ticker)),
		Shares:      shares,
		CostBasis:   costBasis,
		AddedAt:     time.Now().UTC(),
	}
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM portfolios WHERE id = ?", portfolioID).Scan(&count); err != nil {
			return fmt.Errorf("failed to query portfolio: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		result, err := tx.Exec(
			"INSERT INTO holdings (portfolio_id, ticker, shares, cost_basis, added_at) VALUES (?, ?, ?, ?, ?)",
			h.PortfolioID, h.Ticker, h.Shares, h.CostBasis, h.AddedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert holding: %w", err)
		}
		h.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read holding id: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListHoldings returns a portfolio's holdings in insertion order.
func (r *Repository) ListHoldings(portfolioID string) ([]Holding, error) {
	rows, err := r.db.Query(
		"SELECT id, portfolio_id, ticker, shares, cost_basis, added_at FROM holdings WHERE portfolio_id = ? ORDER BY id",
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		var addedAt int64
		if err := rows.Scan(&h.ID, &h.PortfolioID, &h.Ticker, &h.Shares, &h.CostBasis, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.AddedAt = time.Unix(addedAt, 0).UTC()
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

// DeleteHolding removes one holding by id.
func (r *Repository) DeleteHolding(portfolioID string, holdingID int64) error {
	result, err := r.db.Exec(
		"DELETE FROM holdings WHERE id = ? AND portfolio_id = ?",
		holdingID, portfolioID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
