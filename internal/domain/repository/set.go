package repository

// Set agrupa los repositorios atados a un mismo Querier (pool o transacción).
type Set struct {
	Products       ProductRepository
	Movements      StockMovementRepository
	Sales          SaleRepository
	PurchaseOrders PurchaseOrderRepository
	Adjustments    StockAdjustmentRepository
	Counters       CounterRepository
	Suppliers      SupplierRepository
	Categories     CategoryRepository
}
