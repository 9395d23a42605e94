package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const purchaseOrderColumns = `id, supplier_id, purchase_number, status, ordered_at, expected_delivery_date,
	received_at, received_by, notes, created_by, created_at, updated_at`

// PurchaseOrderRepo órdenes de compra y sus líneas sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (supplier_id, purchase_number, status, ordered_at, expected_delivery_date,
			received_at, received_by, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		po.SupplierID, po.PurchaseNumber, string(po.Status), po.OrderedAt, po.ExpectedDeliveryDate,
		po.ReceivedAt, po.ReceivedBy, po.Notes, po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	).Scan(&po.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) CreateItem(ctx context.Context, it *entity.PurchaseOrderItem) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO purchase_order_items (purchase_order_id, product_id, quantity, unit_cost, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		it.PurchaseOrderID, it.ProductID, it.Quantity, it.UnitCost, it.Subtotal,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert purchase order item: %w", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; dos recepciones concurrentes de la misma orden se serializan aquí.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, query string, id int64) (*entity.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", mapLockError(err))
	}
	if err := r.loadItems(ctx, []*entity.PurchaseOrder{po}); err != nil {
		return nil, err
	}
	return po, nil
}

func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, po *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, ordered_at = $3, received_at = $4, received_by = $5, updated_at = $6
		WHERE id = $1`,
		po.ID, string(po.Status), po.OrderedAt, po.ReceivedAt, po.ReceivedBy, po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseOrderRepo) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, int, error) {
	where := []string{"TRUE"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.SupplierID != 0 {
		add("supplier_id = $%d", filter.SupplierID)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM purchase_orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchase orders: %w", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE `+cond+` ORDER BY id DESC`+limitOffset(&args, filter.Limit, filter.Offset),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()
	list := []*entity.PurchaseOrder{}
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, po)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *PurchaseOrderRepo) loadItems(ctx context.Context, orders []*entity.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*entity.PurchaseOrder, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, po := range orders {
		byID[po.ID] = po
		ids = append(ids, po.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_cost, subtotal
		FROM purchase_order_items WHERE purchase_order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &it.UnitCost, &it.Subtotal); err != nil {
			return fmt.Errorf("scan purchase order item: %w", err)
		}
		po := byID[it.PurchaseOrderID]
		po.Items = append(po.Items, it)
	}
	return rows.Err()
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var (
		po     entity.PurchaseOrder
		status string
	)
	err := row.Scan(&po.ID, &po.SupplierID, &po.PurchaseNumber, &status, &po.OrderedAt, &po.ExpectedDeliveryDate,
		&po.ReceivedAt, &po.ReceivedBy, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	po.Status = entity.PurchaseOrderStatus(status)
	return &po, nil
}
