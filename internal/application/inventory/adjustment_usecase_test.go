package inventory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/pkg/logger"
)

func newAdjustmentUseCase(f *fixture) *AdjustmentUseCase {
	uc := NewAdjustmentUseCase(f.tx, f.store.Repos(), f.mutator, logger.Nop())
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func TestAdjustment_AplicaDeltasConReferencia(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 0)
	b := f.product(t, "B", 4, 0)
	uc := newAdjustmentUseCase(f)

	out, err := uc.Create(context.Background(), 3, dto.CreateStockAdjustmentRequest{
		Reason: "correction",
		Notes:  "conteo físico",
		Items: []dto.StockAdjustmentItemRequest{
			{ProductID: b.ID, Delta: 6},
			{ProductID: a.ID, Delta: -4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "correction", out.Reason)
	assert.Equal(t, int64(3), out.CreatedBy)
	require.Len(t, out.Movements, 2)
	for _, m := range out.Movements {
		assert.Equal(t, string(entity.MovementTypeAdjustment), m.Type)
		assert.Equal(t, string(entity.ReferenceStockAdjustment), m.ReferenceType)
		assert.Equal(t, out.ID, m.ReferenceID)
	}
	assert.Equal(t, out.Movements[0].TransactionID, out.Movements[1].TransactionID)
	assert.Equal(t, 6, f.stock(t, a.ID))
	assert.Equal(t, 10, f.stock(t, b.ID))

	again, err := uc.GetByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Len(t, again.Movements, 2)
}

func TestAdjustment_ProductoInexistenteAbortaElLote(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 0)
	uc := newAdjustmentUseCase(f)

	_, err := uc.Create(context.Background(), 3, dto.CreateStockAdjustmentRequest{
		Reason: "lost",
		Items: []dto.StockAdjustmentItemRequest{
			{ProductID: a.ID, Delta: -1},
			{ProductID: 404, Delta: -1},
		},
	})
	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(404), notFound.ProductID)
	assert.Equal(t, 10, f.stock(t, a.ID))

	movements, err := f.store.Repos().Movements.ListByProduct(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestAdjustment_LineaQueDejaStockNegativoRevierteTodo(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 0)
	b := f.product(t, "B", 1, 0)
	uc := newAdjustmentUseCase(f)

	_, err := uc.Create(context.Background(), 3, dto.CreateStockAdjustmentRequest{
		Reason: "damaged",
		Items: []dto.StockAdjustmentItemRequest{
			{ProductID: a.ID, Delta: -5},
			{ProductID: b.ID, Delta: -2},
		},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, b.ID, insufficient.ProductID)
	assert.Equal(t, 10, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
}

func TestAdjustment_MismoProductoEnVariasLineas(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 2, 0)
	uc := newAdjustmentUseCase(f)

	// cada línea se valida por separado: +5 y luego -6 deja 1
	out, err := uc.Create(context.Background(), 3, dto.CreateStockAdjustmentRequest{
		Reason: "other",
		Items: []dto.StockAdjustmentItemRequest{
			{ProductID: a.ID, Delta: 5},
			{ProductID: a.ID, Delta: -6},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Movements, 2)
	assert.Equal(t, 7, out.Movements[0].StockAfter)
	assert.Equal(t, 7, out.Movements[1].StockBefore)
	assert.Equal(t, 1, f.stock(t, a.ID))
}

func TestAdjustment_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 2, 0)
	uc := newAdjustmentUseCase(f)
	item := []dto.StockAdjustmentItemRequest{{ProductID: a.ID, Delta: 1}}

	cases := map[string]dto.CreateStockAdjustmentRequest{
		"motivo desconocido": {Reason: "theft", Items: item},
		"sin líneas":         {Reason: "lost"},
		"delta cero":         {Reason: "lost", Items: []dto.StockAdjustmentItemRequest{{ProductID: a.ID, Delta: 0}}},
		"notas muy largas":   {Reason: "lost", Notes: strings.Repeat("x", 501), Items: item},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), 3, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 2, f.stock(t, a.ID))
}

func TestAdjustment_GetByIDInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := newAdjustmentUseCase(f).GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustment_DeltaFueraDeRango(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", 10, 0)
	uc := newAdjustmentUseCase(f)

	for _, delta := range []int{entity.MaxLineQuantity + 1, -entity.MaxLineQuantity - 1} {
		_, err := uc.Create(context.Background(), 3, dto.CreateStockAdjustmentRequest{
			Reason: "correction",
			Items:  []dto.StockAdjustmentItemRequest{{ProductID: a.ID, Delta: delta}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Equal(t, 10, f.stock(t, a.ID))
}

func TestAdjustment_SpanRegistraRechazo(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	f := newFixture(t)
	b := f.product(t, "B", 1, 0)
	uc := newAdjustmentUseCase(f)

	_, err := uc.Create(context.Background(), 3, dto.CreateStockAdjustmentRequest{
		Reason: "damaged",
		Items:  []dto.StockAdjustmentItemRequest{{ProductID: b.ID, Delta: -2}},
	})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "CreateStockAdjustment", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("actor_id", 3))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("items", 1))
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events(), "el error queda como evento del span")
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
