package repository

import "github.com/jhoicas/godam-core/internal/domain/entity"

// StockMovementRepository define el puerto del ledger de movimientos.
// El ledger es append-only: no hay Update genérico; la única mutación
// permitida es el backfill del número de remisión (delivery note).
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	ListBySalesOrder(salesOrder string) ([]*entity.StockMovement, error)
	LatestBySalesOrder(salesOrder string) (*entity.StockMovement, error)
	ListRecent(limit, offset int) ([]*entity.StockMovement, error)
	// SumAbsByWarehousePartAndTypes suma |qty_change| para los tipos dados,
	// acotado a (bodega, parte). Base del cálculo de parked qty.
	SumAbsByWarehousePartAndTypes(warehouseNo, partNumber string, types []entity.MovementType) (int, error)
	SumBySalesOrderPartAndType(salesOrder, partNumber string, movementType entity.MovementType) (int, error)
	UpdateDeliveryNoteNumber(salesOrder, deliveryNoteNumber string) error
}
