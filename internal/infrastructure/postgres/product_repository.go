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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, category_id, price, cost_price, stock_qty, min_stock, is_active,
	created_by, created_at, updated_at, deleted_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.Price, &p.CostPrice,
		&p.StockQty, &p.MinStock, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto y asigna su ID. El stock inicial entra luego vía StockMutator.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (sku, name, description, category_id, price, cost_price, stock_qty, min_stock, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		product.SKU, product.Name, product.Description, product.CategoryID, product.Price, product.CostPrice,
		product.StockQty, product.MinStock, product.IsActive, product.CreatedBy, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetForUpdate lee el producto con SELECT ... FOR UPDATE; la fila queda bloqueada hasta el fin de la tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock product: %w", mapLockError(err))
	}
	return p, nil
}

// Update actualiza un producto existente. No permite modificar costo ni stock (se manejan vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, category_id = $4, price = $5, min_stock = $6, is_active = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.CategoryID, product.Price, product.MinStock, product.IsActive, product.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock persiste stock_qty y cost_price (usado solo por el StockMutator).
func (r *ProductRepo) UpdateStock(ctx context.Context, product *entity.Product) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock_qty = $2, cost_price = $3, updated_at = $4 WHERE id = $1`,
		product.ID, product.StockQty, product.CostPrice, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos por ID ascendente con búsqueda por nombre o SKU.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if filter.OnlyActive {
		where = append(where, "is_active")
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` + cond + ` ORDER BY id` + limitOffset(&args, filter.Limit, filter.Offset)
	list, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListLowStock productos activos con stock_qty <= min_stock, menor stock primero.
func (r *ProductRepo) ListLowStock(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var args []any
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active AND deleted_at IS NULL AND stock_qty <= min_stock
		ORDER BY stock_qty, id` + limitOffset(&args, limit, offset)
	return r.queryProducts(ctx, query, args...)
}

// SoftDelete marca la baja lógica; el kardex y los documentos conservan la referencia.
func (r *ProductRepo) SoftDelete(ctx context.Context, product *entity.Product) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET is_active = FALSE, deleted_at = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`,
		product.ID, product.DeletedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra la fila, aunque esté dada de baja. Las FK de kardex y documentos la protegen.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete product %d: %w", id, domain.ErrInUse)
		}
		return fmt.Errorf("delete product: %w", mapLockError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM stock_movements WHERE product_id = $1)
			OR EXISTS (SELECT 1 FROM sale_items WHERE product_id = $1)
			OR EXISTS (SELECT 1 FROM purchase_order_items WHERE product_id = $1)`, id).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("product references: %w", err)
	}
	return used, nil
}

func (r *ProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := []*entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// limitOffset agrega LIMIT/OFFSET como parámetros; limit <= 0 no limita.
func limitOffset(args *[]any, limit, offset int) string {
	var sb strings.Builder
	if limit > 0 {
		*args = append(*args, limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(*args))
	}
	if offset > 0 {
		*args = append(*args, offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(*args))
	}
	return sb.String()
}
