package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, transaction_id, product_id, type, reference_type, reference_id, quantity, stock_before, stock_after, user_id, created_at`

// StockMovementRepo kardex sobre PostgreSQL. Solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	ref := m.Reference
	if ref == nil {
		ref = entity.NoRef{}
	}
	query := `
		INSERT INTO stock_movements (transaction_id, product_id, type, reference_type, reference_id, quantity, stock_before, stock_after, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.TransactionID, m.ProductID, string(m.Type), string(ref.Kind()), ref.RefID(),
		m.Quantity, m.StockBefore, m.StockAfter, m.UserID, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	where := []string{"TRUE"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.ProductID != 0 {
		add("product_id = $%d", filter.ProductID)
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	order := " ORDER BY id DESC"
	if filter.Ascending {
		order = " ORDER BY id"
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE ` + cond + order + limitOffset(&args, filter.Limit, filter.Offset)
	list, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockMovement, error) {
	return r.query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY id`, productID)
}

func (r *StockMovementRepo) ListByReference(ctx context.Context, ref entity.Reference) ([]*entity.StockMovement, error) {
	return r.query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE reference_type = $1 AND reference_id = $2 ORDER BY id`,
		string(ref.Kind()), ref.RefID())
}

func (r *StockMovementRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m       entity.StockMovement
		typ     string
		refKind string
		refID   int64
	)
	if err := row.Scan(&m.ID, &m.TransactionID, &m.ProductID, &typ, &refKind, &refID,
		&m.Quantity, &m.StockBefore, &m.StockAfter, &m.UserID, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan stock movement: %w", err)
	}
	ref, err := entity.NewReference(entity.ReferenceKind(refKind), refID)
	if err != nil {
		return nil, fmt.Errorf("scan stock movement %d: %w", m.ID, err)
	}
	m.Type = entity.MovementType(typ)
	m.Reference = ref
	return &m, nil
}
