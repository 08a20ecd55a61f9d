package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
	"github.com/jhoicas/godam-core/pkg/logger"
)

// ConfirmedDeductionEngine aplica la deducción final y autoritativa sobre
// lotes físicos cuando un pick se confirma. Toda la operación corre en una
// transacción con bloqueo de fila: o se descuentan todos los lotes tocados
// (y se registra el movimiento O105 en la variante ConfirmPick), o nada.
type ConfirmedDeductionEngine struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewConfirmedDeductionEngine construye el motor.
func NewConfirmedDeductionEngine(txRunner TxRunner, log *logger.Logger) *ConfirmedDeductionEngine {
	return &ConfirmedDeductionEngine{txRunner: txRunner, log: log}
}

// ApplyConfirmedDeduction descuenta qty de los lotes de la parte resuelta.
// Con preferredRack la deducción se restringe al lote de ese rack (un solo
// lote); sin rack consume en orden FIFO a través de todos los lotes. Si los
// lotes elegibles no alcanzan, falla con ErrInsufficientStock y la
// transacción revierte sin deducción parcial.
func (e *ConfirmedDeductionEngine) ApplyConfirmedDeduction(ctx context.Context, partNumber string, qty int, preferredRack string) error {
	err := e.txRunner.Run(ctx, func(lotRepo repository.StockLotRepository, _ repository.StockMovementRepository) error {
		resolved, err := resolveMainPart(lotRepo, partNumber)
		if err != nil {
			return err
		}
		return deductLots(lotRepo, resolved, qty, preferredRack)
	})
	if err != nil {
		return err
	}
	if e.log != nil {
		e.log.Info().Str("part", partNumber).Int("qty", qty).Str("rack", preferredRack).Msg("deducción confirmada")
	}
	return nil
}

// ConfirmPickInput agrupa la confirmación de un pick: la deducción física y
// el registro O105 que la documenta, en la misma transacción.
type ConfirmPickInput struct {
	PartNumber    string
	Qty           int
	PreferredRack string
	SalesOrder    string
	InvoiceNumber string
	Actor         entity.Actor
	// Context opcional: el PickContext preparado antes, para trazabilidad de
	// racks sugerido/real y remark.
	Context *PickContext
}

// ConfirmPick deduce y registra el O105 atómicamente. Reconfirmar el mismo
// sales order es idempotente: solo se deduce y loguea el delta que falte
// respecto de lo ya confirmado para esa parte.
func (e *ConfirmedDeductionEngine) ConfirmPick(ctx context.Context, input ConfirmPickInput) error {
	if input.Qty <= 0 || input.PartNumber == "" || input.SalesOrder == "" {
		return fmt.Errorf("%w: confirmación requiere parte, sales order y qty > 0", domain.ErrInvalidInput)
	}
	var deducted int
	err := e.txRunner.Run(ctx, func(lotRepo repository.StockLotRepository, movRepo repository.StockMovementRepository) error {
		resolved, err := resolveMainPart(lotRepo, input.PartNumber)
		if err != nil {
			return err
		}
		logged, err := movRepo.SumBySalesOrderPartAndType(input.SalesOrder, resolved, entity.MovementConfirmed)
		if err != nil {
			return err
		}
		if logged < 0 {
			logged = -logged
		}
		delta := input.Qty - logged
		if delta <= 0 {
			// Ya confirmado por completo: reintento sin efecto.
			return nil
		}
		if err := deductLots(lotRepo, resolved, delta, input.PreferredRack); err != nil {
			return err
		}
		deducted = delta

		mov := &entity.StockMovement{
			ID:            uuid.New().String(),
			Type:          entity.MovementConfirmed,
			PartNumber:    resolved,
			QtyChange:     -delta,
			SalesOrder:    input.SalesOrder,
			InvoiceNumber: input.InvoiceNumber,
			PickedQty:     delta,
			RequestedQty:  input.Qty,
			CreatedBy:     input.Actor.UserID,
			CreatedAt:     time.Now(),
		}
		if c := input.Context; c != nil {
			mov.WarehouseNo = c.WarehouseNo
			mov.StorageLocation = c.StorageLocation
			mov.Rack = c.Rack
			mov.Bin = c.Bin
			mov.SuggestedRack = c.SuggestedRack
			mov.ActualRack = c.ActualRack
			mov.Reference = c.Reference
			mov.Remark = c.Remark
		}
		return movRepo.Create(mov)
	})
	if err != nil {
		return err
	}
	if e.log != nil && deducted > 0 {
		e.log.Info().Str("part", input.PartNumber).Str("sales_order", input.SalesOrder).
			Int("qty", deducted).Msg("pick confirmado")
	}
	return nil
}

// deductLots recorre los lotes en orden FIFO (con bloqueo de fila)
// descontando hasta satisfacer qty. Con rack, solo el lote de ese rack es
// elegible y la deducción se detiene tras tocarlo. Cada decremento pasa por
// assertNonNegative antes de persistirse.
func deductLots(lotRepo repository.StockLotRepository, partNumber string, qty int, preferredRack string) error {
	rows, err := lotRepo.ListByPartForUpdate(partNumber)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: sin stock para la parte %s", domain.ErrNotFound, partNumber)
	}

	remaining := qty
	for _, row := range rows {
		if remaining <= 0 {
			break
		}
		if preferredRack != "" && (row.Rack == "" || !sameRack(row.Rack, preferredRack)) {
			continue
		}
		available := row.Quantity
		if available <= 0 {
			continue
		}
		deduct := available
		if remaining < deduct {
			deduct = remaining
		}
		row.Quantity = available - deduct
		if err := assertNonNegative(row); err != nil {
			return err
		}
		if err := lotRepo.Update(row); err != nil {
			return err
		}
		remaining -= deduct
		if preferredRack != "" {
			break
		}
	}
	if remaining > 0 {
		return fmt.Errorf("%w: no alcanza para confirmar %d de %s (faltan %d)",
			domain.ErrInsufficientStock, qty, partNumber, remaining)
	}
	return nil
}
