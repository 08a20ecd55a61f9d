package repository

import "github.com/jhoicas/godam-core/internal/domain/entity"

// StockLotRepository define el puerto de persistencia de lotes físicos.
// Las listas por parte vienen ordenadas por created_at asc (orden FIFO);
// las variantes ForUpdate bloquean las filas (SELECT ... FOR UPDATE) y solo
// tienen sentido dentro de una transacción del TxRunner.
type StockLotRepository interface {
	GetByID(id string) (*entity.StockLot, error)
	GetByIDForUpdate(id string) (*entity.StockLot, error)
	ListByPart(partNumber string) ([]*entity.StockLot, error)
	ListByPartForUpdate(partNumber string) ([]*entity.StockLot, error)
	ListByWarehousePart(warehouseNo, partNumber string) ([]*entity.StockLot, error)
	ListByPartAndIndicator(partNumber, indicator string) ([]*entity.StockLot, error)
	ListByParentPart(parentPartNumber string) ([]*entity.StockLot, error)
	ListByWarehouse(warehouseNo string) ([]*entity.StockLot, error)
	ListAll() ([]*entity.StockLot, error)
	FindByNaturalKey(warehouseNo, storageLocation, partNumber, rack string, drumNumber int) (*entity.StockLot, error)
	Create(lot *entity.StockLot) error
	Update(lot *entity.StockLot) error
}
