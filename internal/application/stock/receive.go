package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
	"github.com/jhoicas/godam-core/pkg/logger"
)

// ReceiveUseCase inserta o actualiza lotes a partir de items de recepción ya
// parseados y saneados (el parser de archivos y el sanitizador de texto son
// colaboradores externos). El upsert va por clave natural; CreatedAt se
// estampa solo al insertar porque es el ancla FIFO del lote.
type ReceiveUseCase struct {
	txRunner TxRunner
	lots     repository.StockLotRepository
	log      *logger.Logger
}

// NewReceiveUseCase construye el caso de uso. lots debe estar atado al pool
// (se usa para las consultas de solo lectura).
func NewReceiveUseCase(txRunner TxRunner, lots repository.StockLotRepository, log *logger.Logger) *ReceiveUseCase {
	return &ReceiveUseCase{txRunner: txRunner, lots: lots, log: log}
}

// ReceiptItem es una fila de recepción/carga ya validada aguas arriba.
type ReceiptItem struct {
	WarehouseNo       string
	StorageLocation   string
	PartNumber        string
	SecondaryPartCode string
	ParentPartNumber  string
	PartIndicator     string
	Description       string
	UOM               string
	BaseQty           decimal.Decimal
	Qty               int
	Rack              string
	Bin               string
	CombinedRackLabel string
	DrumNumber        int
	DrumQty           decimal.Decimal
	VendorName        string
	Category          string
	SubCategory       string
	ReceivedAt        string // RFC3339 o yyyy-mm-dd; vacío = desconocido
}

// ReceiptResult resume una recepción.
type ReceiptResult struct {
	Inserted int
	Updated  int
	Total    int
}

// Receive aplica los items en una sola transacción. Filas sin bodega,
// ubicación o parte se saltan; una cantidad negativa aborta todo.
func (uc *ReceiveUseCase) Receive(ctx context.Context, items []ReceiptItem) (*ReceiptResult, error) {
	result := &ReceiptResult{Total: len(items)}
	err := uc.txRunner.Run(ctx, func(lotRepo repository.StockLotRepository, _ repository.StockMovementRepository) error {
		now := time.Now()
		for i, item := range items {
			if item.WarehouseNo == "" || item.StorageLocation == "" || item.PartNumber == "" {
				continue
			}
			if item.Qty < 0 {
				return fmt.Errorf("%w: fila %d, qty negativa para la parte %s",
					domain.ErrInvalidInput, i+1, item.PartNumber)
			}

			lot, err := lotRepo.FindByNaturalKey(item.WarehouseNo, item.StorageLocation, item.PartNumber, item.Rack, item.DrumNumber)
			if err != nil {
				return err
			}
			isNew := lot == nil
			if isNew {
				lot = &entity.StockLot{ID: uuid.New().String(), CreatedAt: now}
			}

			lot.WarehouseNo = item.WarehouseNo
			lot.StorageLocation = item.StorageLocation
			lot.PartNumber = item.PartNumber
			lot.SecondaryPartCode = item.SecondaryPartCode
			lot.ParentPartNumber = item.ParentPartNumber
			lot.PartIndicator = item.PartIndicator
			lot.Description = item.Description
			lot.UOM = item.UOM
			if lot.UOM == "" {
				lot.UOM = "EA"
			}
			lot.BaseQty = item.BaseQty
			if lot.BaseQty.LessThanOrEqual(decimal.Zero) {
				lot.BaseQty = decimal.NewFromInt(1)
			}
			lot.Quantity = item.Qty
			lot.Rack = item.Rack
			lot.Bin = item.Bin
			lot.CombinedRackLabel = item.CombinedRackLabel
			lot.DrumNumber = item.DrumNumber
			lot.DrumQty = item.DrumQty
			lot.VendorName = item.VendorName
			lot.Category = item.Category
			lot.SubCategory = item.SubCategory
			lot.ReceivedAt = parseReceivedAt(item.ReceivedAt)

			if isNew {
				if err := lotRepo.Create(lot); err != nil {
					return err
				}
				result.Inserted++
			} else {
				if err := lotRepo.Update(lot); err != nil {
					return err
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uc.log != nil {
		uc.log.Info().Int("inserted", result.Inserted).Int("updated", result.Updated).
			Int("total", result.Total).Msg("recepción de stock aplicada")
	}
	return result, nil
}

// ListStock lista lotes con filtros opcionales: por parte (orden FIFO), por
// bodega (recientes primero) o todo. Cada fila pasa el guard de no-negativo.
func (uc *ReceiveUseCase) ListStock(warehouseNo, partNumber string) ([]*entity.StockLot, error) {
	var (
		rows []*entity.StockLot
		err  error
	)
	switch {
	case partNumber != "":
		rows, err = uc.lots.ListByPart(partNumber)
	case warehouseNo != "":
		rows, err = uc.lots.ListByWarehouse(warehouseNo)
	default:
		rows, err = uc.lots.ListAll()
	}
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := assertNonNegative(row); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// GetStockByPart devuelve el lote más antiguo de la parte en la bodega, o
// nil si no hay.
func (uc *ReceiveUseCase) GetStockByPart(warehouseNo, partNumber string) (*entity.StockLot, error) {
	rows, err := uc.lots.ListByWarehousePart(warehouseNo, partNumber)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := assertNonNegative(rows[0]); err != nil {
		return nil, err
	}
	return rows[0], nil
}

func parseReceivedAt(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	return nil
}
