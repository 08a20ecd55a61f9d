// Package movement expone el ledger de movimientos de inventario: un log
// append-only de transiciones de estado, tipado por la taxonomía fija de
// códigos O1xx/I2xx/A1xx.
package movement

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
	"github.com/jhoicas/godam-core/pkg/logger"
)

// parkedTypes: picks en vuelo (registrados o verificados) que reservan
// cantidad sin haberla deducido aún de lotes físicos.
var parkedTypes = []entity.MovementType{entity.MovementPicked, entity.MovementChecked}

// Ledger registra y consulta movimientos. No impone progresión monotónica
// del pipeline outbound: los flujos de override administrativo dependen de
// poder registrar fuera de orden.
type Ledger struct {
	movs repository.StockMovementRepository
	log  *logger.Logger
}

// NewLedger construye el ledger sobre el repositorio de movimientos.
func NewLedger(movs repository.StockMovementRepository, log *logger.Logger) *Ledger {
	return &Ledger{movs: movs, log: log}
}

// AppendInput son los campos de un registro nuevo. CreatedAt lo estampa el
// ledger; el registro resultante es inmutable salvo el backfill del número
// de remisión.
type AppendInput struct {
	Type            entity.MovementType
	WarehouseNo     string
	StorageLocation string
	PartNumber      string
	QtyChange       int
	SalesOrder      string
	InvoiceNumber   string
	CreatedBy       string
	Rack            string
	Bin             string
	SuggestedRack   string
	ActualRack      string
	PickedQty       int
	RequestedQty    int
	Reference       string
	Remark          string
}

// Append persiste un movimiento nuevo y lo devuelve.
func (l *Ledger) Append(input AppendInput) (*entity.StockMovement, error) {
	if input.Type.Code() == "" {
		return nil, fmt.Errorf("%w: tipo de movimiento desconocido", domain.ErrInvalidInput)
	}
	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		Type:            input.Type,
		WarehouseNo:     input.WarehouseNo,
		StorageLocation: input.StorageLocation,
		PartNumber:      input.PartNumber,
		QtyChange:       input.QtyChange,
		SalesOrder:      input.SalesOrder,
		InvoiceNumber:   input.InvoiceNumber,
		Rack:            input.Rack,
		Bin:             input.Bin,
		SuggestedRack:   input.SuggestedRack,
		ActualRack:      input.ActualRack,
		PickedQty:       input.PickedQty,
		RequestedQty:    input.RequestedQty,
		Reference:       input.Reference,
		Remark:          input.Remark,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       time.Now(),
	}
	if err := l.movs.Create(mov); err != nil {
		return nil, err
	}
	if l.log != nil {
		l.log.Info().Str("type", mov.Type.Code()).Str("part", mov.PartNumber).
			Int("qty_change", mov.QtyChange).Str("sales_order", mov.SalesOrder).
			Msg("movimiento registrado")
	}
	return mov, nil
}

// MovementsBySalesOrder lista los movimientos de un sales order en orden
// cronológico ascendente.
func (l *Ledger) MovementsBySalesOrder(salesOrder string) ([]*entity.StockMovement, error) {
	return l.movs.ListBySalesOrder(salesOrder)
}

// ParkedQty es la cantidad reservada por picks en vuelo (O103+O104) para una
// parte en una bodega, en magnitud.
func (l *Ledger) ParkedQty(warehouseNo, partNumber string) (int, error) {
	return l.movs.SumAbsByWarehousePartAndTypes(warehouseNo, partNumber, parkedTypes)
}

// SumByWarehousePartAndTypes suma magnitudes de qty_change para los tipos
// dados, acotado a bodega y parte.
func (l *Ledger) SumByWarehousePartAndTypes(warehouseNo, partNumber string, types []entity.MovementType) (int, error) {
	return l.movs.SumAbsByWarehousePartAndTypes(warehouseNo, partNumber, types)
}

// SumBySalesOrderPartAndType suma qty_change (con signo) para un sales
// order, parte y tipo: detecta lo ya registrado en reconfirmaciones.
func (l *Ledger) SumBySalesOrderPartAndType(salesOrder, partNumber string, movementType entity.MovementType) (int, error) {
	return l.movs.SumBySalesOrderPartAndType(salesOrder, partNumber, movementType)
}

// CurrentStatus es el tipo del movimiento más reciente del sales order.
func (l *Ledger) CurrentStatus(salesOrder string) (entity.MovementType, error) {
	latest, err := l.movs.LatestBySalesOrder(salesOrder)
	if err != nil {
		return entity.MovementUnknown, err
	}
	if latest == nil {
		return entity.MovementUnknown, fmt.Errorf("%w: sin movimientos para %s", domain.ErrNotFound, salesOrder)
	}
	return latest.Type, nil
}

// BackfillDeliveryNote asigna el número de remisión a los movimientos del
// sales order. Es la única mutación permitida sobre registros existentes.
func (l *Ledger) BackfillDeliveryNote(salesOrder, deliveryNoteNumber string) error {
	if salesOrder == "" || deliveryNoteNumber == "" {
		return fmt.Errorf("%w: sales order y número de remisión requeridos", domain.ErrInvalidInput)
	}
	return l.movs.UpdateDeliveryNoteNumber(salesOrder, deliveryNoteNumber)
}

// ListRecent pagina los movimientos más recientes (vista de administración).
func (l *Ledger) ListRecent(limit, offset int) ([]*entity.StockMovement, error) {
	return l.movs.ListRecent(limit, offset)
}
