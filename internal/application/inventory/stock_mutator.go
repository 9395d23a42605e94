package inventory

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

const instrumentationName = "github.com/jhoicas/pos-inventario-api/internal/application/inventory"

// Mutation describe un cambio de stock sobre un producto ya bloqueado (LockProducts)
// en la transacción a la que pertenece el repository.Set que recibe Apply.
type Mutation struct {
	Product       *entity.Product
	Delta         int // positivo entra, negativo sale; nunca 0
	Type          entity.MovementType
	Reference     entity.Reference // nil equivale a NoRef
	ActorID       int64
	TransactionID string
}

// StockMutator es el único camino que modifica stock_qty y el único que escribe en el kardex:
// cada Apply hace exactamente una actualización del producto y una inserción de movimiento.
type StockMutator struct {
	log        *logger.Logger
	now        func() time.Time
	movements  metric.Int64Counter
	violations metric.Int64Counter
}

// NewStockMutator construye el mutador. Las métricas usan el MeterProvider global (noop si no hay SDK).
func NewStockMutator(log *logger.Logger) *StockMutator {
	return NewStockMutatorWithMeter(log, otel.Meter(instrumentationName))
}

// NewStockMutatorWithMeter igual que NewStockMutator con un Meter explícito.
func NewStockMutatorWithMeter(log *logger.Logger, meter metric.Meter) *StockMutator {
	movements, _ := meter.Int64Counter("inventory.stock_movements",
		metric.WithDescription("Movimientos de stock registrados en el kardex"))
	violations, _ := meter.Int64Counter("inventory.negative_stock_violations",
		metric.WithDescription("Violaciones de la invariante de stock no negativo"))
	return &StockMutator{
		log:        log.Named("stock_mutator"),
		now:        time.Now,
		movements:  movements,
		violations: violations,
	}
}

// Apply aplica Delta al producto, persiste stock_qty (y cost_price, si el llamador lo cambió)
// y agrega un movimiento con las fotos stock_before/stock_after. Devuelve el nuevo stock.
// Si la salida supera el stock disponible devuelve InsufficientStockError sin mutar nada.
// Un delta que desbordaría stock_qty (más allá de MaxStockQty) es ErrInvalidInput.
func (m *StockMutator) Apply(ctx context.Context, repos repository.Set, mut Mutation) (int, error) {
	p := mut.Product
	if p == nil || mut.Delta == 0 || !mut.Type.Valid() {
		return 0, domain.ErrInvalidInput
	}
	ref := mut.Reference
	if ref == nil {
		ref = entity.NoRef{}
	}

	before := p.StockQty
	if mut.Delta == math.MinInt || (mut.Delta > 0 && before > entity.MaxStockQty-mut.Delta) {
		return 0, domain.ErrInvalidInput
	}
	if mut.Delta < 0 && before+mut.Delta < 0 {
		return 0, &domain.InsufficientStockError{ProductID: p.ID, Requested: -mut.Delta, Available: before}
	}
	after := before + mut.Delta
	if after < 0 {
		// Solo alcanzable con datos ya corruptos (stock previo negativo).
		m.violations.Add(ctx, 1, metric.WithAttributes(attribute.String("movement_type", string(mut.Type))))
		m.log.Error().
			Int64("product_id", p.ID).
			Int("current_qty", before).
			Int("attempted_delta", mut.Delta).
			Str("movement_type", string(mut.Type)).
			Msg("invariante de stock no negativo violada")
		return 0, &domain.NegativeStockError{ProductID: p.ID, CurrentQty: before, AttemptedDelta: mut.Delta}
	}

	now := m.now()
	p.StockQty = after
	p.UpdatedAt = now
	if err := repos.Products.UpdateStock(ctx, p); err != nil {
		p.StockQty = before
		return 0, err
	}

	movement := &entity.StockMovement{
		TransactionID: mut.TransactionID,
		ProductID:     p.ID,
		Type:          mut.Type,
		Reference:     ref,
		Quantity:      mut.Delta,
		StockBefore:   before,
		StockAfter:    after,
		UserID:        mut.ActorID,
		CreatedAt:     now,
	}
	if err := repos.Movements.Create(ctx, movement); err != nil {
		p.StockQty = before
		return 0, err
	}

	m.movements.Add(ctx, 1, metric.WithAttributes(attribute.String("movement_type", string(mut.Type))))
	m.log.Debug().
		Int64("product_id", p.ID).
		Int("stock_before", before).
		Int("stock_after", after).
		Str("movement_type", string(mut.Type)).
		Msg("stock actualizado")
	return after, nil
}
