package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.StockAdjustmentRepository = (*StockAdjustmentRepo)(nil)

// StockAdjustmentRepo cabeceras de ajustes; los movimientos se leen del kardex por referencia.
type StockAdjustmentRepo struct {
	q Querier
}

func NewStockAdjustmentRepository(q Querier) *StockAdjustmentRepo {
	return &StockAdjustmentRepo{q: q}
}

func (r *StockAdjustmentRepo) Create(ctx context.Context, adj *entity.StockAdjustment) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO stock_adjustments (reason, notes, created_by, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		string(adj.Reason), adj.Notes, adj.CreatedBy, adj.CreatedAt,
	).Scan(&adj.ID)
	if err != nil {
		return fmt.Errorf("insert stock adjustment: %w", err)
	}
	return nil
}

func (r *StockAdjustmentRepo) GetByID(ctx context.Context, id int64) (*entity.StockAdjustment, error) {
	var (
		adj    entity.StockAdjustment
		reason string
	)
	err := r.q.QueryRow(ctx,
		`SELECT id, reason, notes, created_by, created_at FROM stock_adjustments WHERE id = $1`, id,
	).Scan(&adj.ID, &reason, &adj.Notes, &adj.CreatedBy, &adj.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock adjustment: %w", err)
	}
	adj.Reason = entity.AdjustmentReason(reason)
	return &adj, nil
}
