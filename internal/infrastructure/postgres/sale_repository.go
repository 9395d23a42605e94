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

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, sale_number, status, payment_status, payment_method, subtotal, tax_amount, discount_amount,
	total_amount, cash_given, change_return, notes, created_by, created_at, updated_at`

// SaleRepo ventas y sus líneas sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (sale_number, status, payment_status, payment_method, subtotal, tax_amount, discount_amount,
			total_amount, cash_given, change_return, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		s.SaleNumber, string(s.Status), string(s.PaymentStatus), string(s.PaymentMethod),
		s.Subtotal, s.TaxAmount, s.DiscountAmount, s.TotalAmount, s.CashGiven, s.ChangeReturn,
		s.Notes, s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) CreateItem(ctx context.Context, it *entity.SaleItem) error {
	query := `
		INSERT INTO sale_items (sale_id, product_id, product_name, product_sku, quantity, price, cost_price, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		it.SaleID, it.ProductID, it.ProductName, it.ProductSKU, it.Quantity, it.Price, it.CostPrice, it.Subtotal, it.CreatedAt,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera de la venta; serializa cancelaciones concurrentes.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query string, id int64) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", mapLockError(err))
	}
	if err := r.loadItems(ctx, []*entity.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateStatus persiste status, payment_status y notes.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *entity.Sale) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE sales SET status = $2, payment_status = $3, notes = $4, updated_at = $5 WHERE id = $1`,
		s.ID, string(s.Status), string(s.PaymentStatus), s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List historial de ventas, la más reciente primero.
func (r *SaleRepo) List(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, int, error) {
	where := []string{"TRUE"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.NumberPrefix != "" {
		add("sale_number LIKE $%d", escapeLike(filter.NumberPrefix)+"%")
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM sales WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE `+cond+` ORDER BY id DESC`+limitOffset(&args, filter.Limit, filter.Offset),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list := []*entity.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	rows.Close()

	if err := r.loadItems(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// loadItems carga las líneas de todas las ventas con una sola consulta.
func (r *SaleRepo) loadItems(ctx context.Context, sales []*entity.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	byID := make(map[int64]*entity.Sale, len(sales))
	ids := make([]int64, 0, len(sales))
	for _, s := range sales {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, product_sku, quantity, price, cost_price, subtotal, created_at
		FROM sale_items WHERE sale_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.ProductSKU,
			&it.Quantity, &it.Price, &it.CostPrice, &it.Subtotal, &it.CreatedAt); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		s := byID[it.SaleID]
		s.Items = append(s.Items, it)
	}
	return rows.Err()
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var (
		s                      entity.Sale
		status, payStat, payMt string
	)
	err := row.Scan(&s.ID, &s.SaleNumber, &status, &payStat, &payMt, &s.Subtotal, &s.TaxAmount, &s.DiscountAmount,
		&s.TotalAmount, &s.CashGiven, &s.ChangeReturn, &s.Notes, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = entity.SaleStatus(status)
	s.PaymentStatus = entity.PaymentStatus(payStat)
	s.PaymentMethod = entity.PaymentMethod(payMt)
	return &s, nil
}

// escapeLike escapa los comodines de LIKE en un prefijo literal.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
