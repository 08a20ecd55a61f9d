package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
	domstock "github.com/jhoicas/godam-core/internal/domain/stock"
	"github.com/jhoicas/godam-core/pkg/logger"
)

const adjustmentReference = "ADMIN_ADJUSTMENT"

// AdjustmentEngine ejecuta correcciones manuales de stock autorizadas.
// La verificación de rol y credencial es del colaborador de autorización:
// aquí solo llega un Actor ya validado. Cada ajuste deja exactamente un
// registro A101/A102 en el ledger, en la misma transacción que los lotes.
type AdjustmentEngine struct {
	txRunner TxRunner
	audit    AuditLog
	log      *logger.Logger
}

// NewAdjustmentEngine construye el motor.
func NewAdjustmentEngine(txRunner TxRunner, audit AuditLog, log *logger.Logger) *AdjustmentEngine {
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &AdjustmentEngine{txRunner: txRunner, audit: audit, log: log}
}

// AdjustmentInput es una corrección manual: exactamente uno de AddQty o
// ReduceQty debe ser positivo.
type AdjustmentInput struct {
	PartNumber string
	AddQty     int
	ReduceQty  int
	Actor      entity.Actor
}

// Adjust aplica el ajuste. Las reducciones se distribuyen del lote más
// antiguo al más nuevo, topando cada lote en su cantidad restante; los
// aumentos van completos al lote más reciente de la parte.
func (e *AdjustmentEngine) Adjust(ctx context.Context, input AdjustmentInput) error {
	if input.PartNumber == "" {
		return fmt.Errorf("%w: part number requerido", domain.ErrInvalidInput)
	}
	if input.Actor.UserID == "" {
		return fmt.Errorf("%w: actor autorizado requerido", domain.ErrInvalidInput)
	}
	hasAdd := input.AddQty > 0
	hasReduce := input.ReduceQty > 0
	if hasAdd == hasReduce {
		return fmt.Errorf("%w: parte %s", domain.ErrInvalidAdjustment, input.PartNumber)
	}

	err := e.txRunner.Run(ctx, func(lotRepo repository.StockLotRepository, movRepo repository.StockMovementRepository) error {
		rows, err := lotRepo.ListByPartForUpdate(input.PartNumber)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: sin lotes para la parte %s", domain.ErrNotFound, input.PartNumber)
		}
		if hasReduce {
			return e.reduce(lotRepo, movRepo, rows, input)
		}
		return e.add(lotRepo, movRepo, rows, input)
	})
	if err != nil {
		return err
	}

	e.audit.Record(ctx, input.Actor.Username, adjustmentDescription(input))
	if e.log != nil {
		e.log.Info().Str("part", input.PartNumber).
			Int("add_qty", input.AddQty).Int("reduce_qty", input.ReduceQty).
			Str("performed_by", input.Actor.Username).Msg("ajuste de stock aplicado")
	}
	return nil
}

// reduce distribuye la reducción FIFO sobre los lotes ya bloqueados y deja
// un único registro A102 por el total.
func (e *AdjustmentEngine) reduce(
	lotRepo repository.StockLotRepository,
	movRepo repository.StockMovementRepository,
	rows []*entity.StockLot,
	input AdjustmentInput,
) error {
	total := domstock.TotalOnHand(rows)
	if input.ReduceQty > total {
		return fmt.Errorf("%w: reducir %d excede el físico %d de %s",
			domain.ErrInsufficientStock, input.ReduceQty, total, input.PartNumber)
	}

	remaining := input.ReduceQty
	for _, row := range rows {
		if remaining <= 0 {
			break
		}
		deduct := row.Quantity
		if remaining < deduct {
			deduct = remaining
		}
		if deduct <= 0 {
			continue
		}
		row.Quantity -= deduct
		if err := assertNonNegative(row); err != nil {
			return err
		}
		if err := lotRepo.Update(row); err != nil {
			return err
		}
		remaining -= deduct
	}

	reference := rows[0]
	return movRepo.Create(&entity.StockMovement{
		ID:              uuid.New().String(),
		Type:            entity.MovementAdjustDecrease,
		WarehouseNo:     reference.WarehouseNo,
		StorageLocation: reference.StorageLocation,
		PartNumber:      input.PartNumber,
		QtyChange:       -input.ReduceQty,
		Rack:            reference.Rack,
		Bin:             reference.Bin,
		SuggestedRack:   reference.CombinedRackLabel,
		ActualRack:      reference.Rack,
		PickedQty:       input.ReduceQty,
		RequestedQty:    input.ReduceQty,
		Reference:       adjustmentReference,
		Remark:          "decrease",
		CreatedBy:       input.Actor.UserID,
		CreatedAt:       time.Now(),
	})
}

// add suma la cantidad completa al lote más reciente (no se distribuye) y
// deja un único registro A101.
func (e *AdjustmentEngine) add(
	lotRepo repository.StockLotRepository,
	movRepo repository.StockMovementRepository,
	rows []*entity.StockLot,
	input AdjustmentInput,
) error {
	target := rows[len(rows)-1]
	target.Quantity += input.AddQty
	if err := lotRepo.Update(target); err != nil {
		return err
	}
	return movRepo.Create(&entity.StockMovement{
		ID:              uuid.New().String(),
		Type:            entity.MovementAdjustIncrease,
		WarehouseNo:     target.WarehouseNo,
		StorageLocation: target.StorageLocation,
		PartNumber:      input.PartNumber,
		QtyChange:       input.AddQty,
		Rack:            target.Rack,
		Bin:             target.Bin,
		SuggestedRack:   target.CombinedRackLabel,
		ActualRack:      target.Rack,
		PickedQty:       input.AddQty,
		RequestedQty:    input.AddQty,
		Reference:       adjustmentReference,
		Remark:          "increase",
		CreatedBy:       input.Actor.UserID,
		CreatedAt:       time.Now(),
	})
}

func adjustmentDescription(input AdjustmentInput) string {
	if input.ReduceQty > 0 {
		return fmt.Sprintf("ajuste stock %s: -%d", input.PartNumber, input.ReduceQty)
	}
	return fmt.Sprintf("ajuste stock %s: +%d", input.PartNumber, input.AddQty)
}
