// Package memory implementa los puertos de repositorio en memoria, con bloqueo exclusivo por fila
// y escrituras transaccionales (commit/rollback). Se usa en modo desarrollo (STORE_DRIVER=memory)
// y en las pruebas de los casos de uso.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain"
	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
	"github.com/jhoicas/pos-inventario-api/internal/domain/repository"
)

// Store estado confirmado. Las transacciones trabajan sobre un txState y lo aplican al confirmar.
type Store struct {
	lockTimeout time.Duration

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	mu          sync.RWMutex
	seq         map[string]int64
	products    map[int64]entity.Product
	movements   []entity.StockMovement // ordenados por ID
	sales       map[int64]entity.Sale  // incluye Items
	pos         map[int64]entity.PurchaseOrder
	adjustments map[int64]entity.StockAdjustment
	counters    map[string]int
	suppliers   map[int64]entity.Supplier
	categories  map[int64]entity.Category
}

// New crea un store vacío. lockTimeout acota la espera por un bloqueo de fila (0 = sin límite,
// solo el contexto).
func New(lockTimeout time.Duration) *Store {
	return &Store{
		lockTimeout: lockTimeout,
		locks:       make(map[string]chan struct{}),
		seq:         make(map[string]int64),
		products:    make(map[int64]entity.Product),
		sales:       make(map[int64]entity.Sale),
		pos:         make(map[int64]entity.PurchaseOrder),
		adjustments: make(map[int64]entity.StockAdjustment),
		counters:    make(map[string]int),
		suppliers:   make(map[int64]entity.Supplier),
		categories:  make(map[int64]entity.Category),
	}
}

// Repos devuelve repositorios fuera de transacción: leen el estado confirmado y escriben en autocommit.
func (s *Store) Repos() repository.Set {
	return s.set(nil)
}

func (s *Store) set(tx *txState) repository.Set {
	ss := session{s: s, tx: tx}
	return repository.Set{
		Products:       &ProductRepo{ss},
		Movements:      &StockMovementRepo{ss},
		Sales:          &SaleRepo{ss},
		PurchaseOrders: &PurchaseOrderRepo{ss},
		Adjustments:    &StockAdjustmentRepo{ss},
		Counters:       &CounterRepo{ss},
		Suppliers:      &SupplierRepo{ss},
		Categories:     &CategoryRepo{ss},
	}
}

// nextID emula una secuencia: los IDs se consumen aunque la transacción haga rollback.
func (s *Store) nextID(table string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[table]++
	return s.seq[table]
}

// acquire toma el bloqueo exclusivo de key. Falla con ErrLockTimeout si vence el plazo o el contexto.
func (s *Store) acquire(ctx context.Context, key string) (chan struct{}, error) {
	s.locksMu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.locksMu.Unlock()

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		t := time.NewTimer(s.lockTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case ch <- struct{}{}:
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lock %s: %w (%v)", key, domain.ErrLockTimeout, ctx.Err())
	case <-timeout:
		return nil, fmt.Errorf("lock %s: %w", key, domain.ErrLockTimeout)
	}
}

// txState escrituras pendientes y bloqueos de una transacción.
// En suppliers y categories un valor nil marca la fila como borrada.
type txState struct {
	held        map[string]chan struct{}
	products    map[int64]entity.Product
	dropped     map[int64]struct{} // productos borrados físicamente
	movements   []entity.StockMovement
	sales       map[int64]entity.Sale
	pos         map[int64]entity.PurchaseOrder
	adjustments map[int64]entity.StockAdjustment
	counters    map[string]int
	suppliers   map[int64]*entity.Supplier
	categories  map[int64]*entity.Category
}

func newTxState() *txState {
	return &txState{
		held:        make(map[string]chan struct{}),
		products:    make(map[int64]entity.Product),
		dropped:     make(map[int64]struct{}),
		sales:       make(map[int64]entity.Sale),
		pos:         make(map[int64]entity.PurchaseOrder),
		adjustments: make(map[int64]entity.StockAdjustment),
		counters:    make(map[string]int),
		suppliers:   make(map[int64]*entity.Supplier),
		categories:  make(map[int64]*entity.Category),
	}
}

func (s *Store) release(tx *txState) {
	for key, ch := range tx.held {
		<-ch
		delete(tx.held, key)
	}
}

// commit aplica las escrituras pendientes de forma atómica respecto de los lectores.
func (s *Store) commit(tx *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range tx.products {
		if s.skuTaken(p.SKU, id, tx) {
			return fmt.Errorf("commit transaction: %w", domain.ErrDuplicate)
		}
	}
	for id, p := range tx.products {
		s.products[id] = p
	}
	for id := range tx.dropped {
		delete(s.products, id)
	}
	for id, sale := range tx.sales {
		s.sales[id] = sale
	}
	for id, po := range tx.pos {
		s.pos[id] = po
	}
	for id, adj := range tx.adjustments {
		s.adjustments[id] = adj
	}
	for key, v := range tx.counters {
		s.counters[key] = v
	}
	applyRows(s.suppliers, tx.suppliers)
	applyRows(s.categories, tx.categories)
	if len(tx.movements) > 0 {
		s.movements = append(s.movements, tx.movements...)
		slices.SortStableFunc(s.movements, func(a, b entity.StockMovement) int {
			return cmpInt64(a.ID, b.ID)
		})
	}
	return nil
}

// skuTaken indica si otro producto (distinto de exceptID) usa sku, considerando el estado
// confirmado con las escrituras pendientes de tx superpuestas. Requiere s.mu tomado.
func (s *Store) skuTaken(sku string, exceptID int64, tx *txState) bool {
	for id, p := range s.products {
		if id == exceptID {
			continue
		}
		if tx != nil {
			if _, gone := tx.dropped[id]; gone {
				continue
			}
			if staged, ok := tx.products[id]; ok {
				p = staged
			}
		}
		if p.SKU == sku {
			return true
		}
	}
	if tx != nil {
		for id, p := range tx.products {
			if _, committed := s.products[id]; committed || id == exceptID {
				continue
			}
			if p.SKU == sku {
				return true
			}
		}
	}
	return false
}

// applyRows confirma filas pendientes; nil borra.
func applyRows[T any](committed map[int64]T, pending map[int64]*T) {
	for id, row := range pending {
		if row == nil {
			delete(committed, id)
			continue
		}
		committed[id] = *row
	}
}

// visibleRows estado confirmado con las filas pendientes de la tx superpuestas. Toma s.mu.
func visibleRows[T any](s *Store, committed map[int64]T, pending map[int64]*T) map[int64]T {
	s.mu.RLock()
	out := make(map[int64]T, len(committed))
	for id, row := range committed {
		out[id] = row
	}
	s.mu.RUnlock()
	for id, row := range pending {
		if row == nil {
			delete(out, id)
			continue
		}
		out[id] = *row
	}
	return out
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// session liga los repositorios a una transacción (tx != nil) o al estado confirmado.
type session struct {
	s  *Store
	tx *txState
}

// lock fuera de transacción no retiene nada, igual que un SELECT ... FOR UPDATE en autocommit.
func (ss session) lock(ctx context.Context, key string) error {
	if ss.tx == nil {
		return ctx.Err()
	}
	if _, ok := ss.tx.held[key]; ok {
		return nil
	}
	ch, err := ss.s.acquire(ctx, key)
	if err != nil {
		return err
	}
	ss.tx.held[key] = ch
	return nil
}

// TxRunner implementa inventory.TxRunner sobre el Store.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repositorios atados a una transacción nueva. Commit si fn devuelve nil;
// si devuelve error (o entra en pánico) las escrituras pendientes se descartan.
// Los bloqueos se liberan siempre al terminar.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Set) error) error {
	tx := newTxState()
	defer r.store.release(tx)

	if err := fn(r.store.set(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return r.store.commit(tx)
}
