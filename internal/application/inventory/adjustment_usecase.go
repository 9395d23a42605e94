package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
	"github.com/jhoicas/pos-inventario-api/pkg/telemetry"
)

const maxNotesLen = 500

// AdjustmentUseCase registra lotes de ajuste manual (toma física / opname).
type AdjustmentUseCase struct {
	tx      TxRunner
	repos   repository.Set
	mutator *StockMutator
	log     *logger.Logger
	now     func() time.Time
}

// NewAdjustmentUseCase construye el caso de uso. repos se usa solo para lecturas fuera de transacción.
func NewAdjustmentUseCase(tx TxRunner, repos repository.Set, mutator *StockMutator, log *logger.Logger) *AdjustmentUseCase {
	return &AdjustmentUseCase{tx: tx, repos: repos, mutator: mutator, log: log.Named("adjustments"), now: time.Now}
}

// Create crea la cabecera y aplica cada delta con el StockMutator en una sola transacción.
// Un producto inexistente aborta el lote completo. No hay validación agregada entre líneas:
// cada una respeta por sí sola la regla de stock no negativo.
func (uc *AdjustmentUseCase) Create(ctx context.Context, actorID int64, in dto.CreateStockAdjustmentRequest) (_ *dto.StockAdjustmentResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "application/inventory", "CreateStockAdjustment",
		attribute.Int64("actor_id", actorID), attribute.Int("items", len(in.Items)))
	defer telemetry.EndSpan(span, &err)

	reason := entity.AdjustmentReason(in.Reason)
	if !reason.Valid() || len(in.Items) == 0 || utf8.RuneCountInString(in.Notes) > maxNotesLen {
		return nil, domain.ErrInvalidInput
	}
	ids := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Delta == 0 || it.Delta < -entity.MaxLineQuantity || it.Delta > entity.MaxLineQuantity {
			return nil, domain.ErrInvalidInput
		}
		ids = append(ids, it.ProductID)
	}

	items := make([]dto.StockAdjustmentItemRequest, len(in.Items))
	copy(items, in.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	var adj *entity.StockAdjustment
	err = uc.tx.Run(ctx, func(repos repository.Set) error {
		adj = &entity.StockAdjustment{
			Reason:    reason,
			Notes:     in.Notes,
			CreatedBy: actorID,
			CreatedAt: uc.now(),
		}
		if err := repos.Adjustments.Create(ctx, adj); err != nil {
			return err
		}

		locked, err := LockProducts(ctx, repos.Products, ids)
		if err != nil {
			return err
		}

		ref := entity.StockAdjustmentRef{StockAdjustmentID: adj.ID}
		txID := uuid.NewString()
		for _, it := range items {
			if _, err := uc.mutator.Apply(ctx, repos, Mutation{
				Product:       locked[it.ProductID],
				Delta:         it.Delta,
				Type:          entity.MovementTypeAdjustment,
				Reference:     ref,
				ActorID:       actorID,
				TransactionID: txID,
			}); err != nil {
				return err
			}
		}

		movements, err := repos.Movements.ListByReference(ctx, ref)
		if err != nil {
			return err
		}
		adj.Movements = derefMovements(movements)
		return nil
	})
	if err != nil {
		uc.log.Debug().Err(err).Int64("actor_id", actorID).Msg("ajuste de stock rechazado")
		return nil, err
	}

	uc.log.Info().
		Int64("adjustment_id", adj.ID).
		Str("reason", string(adj.Reason)).
		Int("movements", len(adj.Movements)).
		Int64("actor_id", actorID).
		Msg("ajuste de stock registrado")
	return dto.NewStockAdjustmentResponse(adj), nil
}

// GetByID devuelve el ajuste con sus movimientos; domain.ErrNotFound si no existe.
func (uc *AdjustmentUseCase) GetByID(ctx context.Context, id int64) (*dto.StockAdjustmentResponse, error) {
	adj, err := uc.repos.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	if adj == nil {
		return nil, domain.ErrNotFound
	}
	movements, err := uc.repos.Movements.ListByReference(ctx, entity.StockAdjustmentRef{StockAdjustmentID: adj.ID})
	if err != nil {
		return nil, fmt.Errorf("list adjustment movements: %w", err)
	}
	adj.Movements = derefMovements(movements)
	return dto.NewStockAdjustmentResponse(adj), nil
}

func derefMovements(in []*entity.StockMovement) []entity.StockMovement {
	out := make([]entity.StockMovement, 0, len(in))
	for _, m := range in {
		out = append(out, *m)
	}
	return out
}
