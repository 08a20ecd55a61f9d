package stock

import (
	"fmt"
	"strings"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
	domstock "github.com/jhoicas/godam-core/internal/domain/stock"
)

// fifoDateLayout formatea la fecha FIFO que ven los operarios.
const fifoDateLayout = "2006-01-02"

// parkedTypes son los movimientos en vuelo que ya reservan cantidad: picks
// registrados (O103) o verificados (O104) aún no deducidos de lotes físicos.
var parkedTypes = []entity.MovementType{entity.MovementPicked, entity.MovementChecked}

// PickAllocationEngine calcula disponibilidad real (físico menos reservado)
// y selecciona el lote FIFO. Todas sus operaciones son lecturas puras: se
// pueden repetir sin efectos antes de confirmar un pick.
type PickAllocationEngine struct {
	lots repository.StockLotRepository
	movs repository.StockMovementRepository
}

// NewPickAllocationEngine construye el motor sobre repos de solo lectura.
func NewPickAllocationEngine(lots repository.StockLotRepository, movs repository.StockMovementRepository) *PickAllocationEngine {
	return &PickAllocationEngine{lots: lots, movs: movs}
}

// PickContext es el resultado de preparar un pick: la parte resuelta, la
// ubicación del lote elegido y los racks sugerido/real para trazabilidad.
type PickContext struct {
	ResolvedPartNumber string
	WarehouseNo        string
	StorageLocation    string
	Rack               string
	Bin                string
	SuggestedRack      string
	ActualRack         string
	Reference          string
	Remark             string
}

// PickSuggestion es una rebanada de disponibilidad por rack en orden FIFO,
// para previsualización en UI.
type PickSuggestion struct {
	PartNumber   string
	Rack         string
	AvailableQty int
	FifoDate     string
}

// PreparePickContext resuelve la parte principal, valida la conservación de
// la jerarquía, calcula disponible = físico - reservado y elige el lote
// FIFO. Si requestedRack difiere del rack FIFO falla con ErrFifoViolation;
// si no alcanza el disponible y allowNegative es falso, con
// ErrInsufficientStock. No tiene efectos secundarios.
func (e *PickAllocationEngine) PreparePickContext(partNumber string, requiredQty int, requestedRack string, allowNegative bool) (*PickContext, error) {
	resolved, err := resolveMainPart(e.lots, partNumber)
	if err != nil {
		return nil, err
	}
	if err := validateParentTotals(e.lots, resolved); err != nil {
		return nil, err
	}
	if err := validateDrumSplitTotals(e.lots, resolved); err != nil {
		return nil, err
	}

	rows, err := e.lots.ListByPart(resolved)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sin stock para la parte %s", domain.ErrNotFound, resolved)
	}
	oldest := rows[0]

	parkedQty, err := e.movs.SumAbsByWarehousePartAndTypes(oldest.WarehouseNo, resolved, parkedTypes)
	if err != nil {
		return nil, err
	}
	totalOnHand := domstock.TotalOnHand(rows)
	if parkedQty > totalOnHand {
		return nil, fmt.Errorf("%w: reservado %d excede el físico %d de %s",
			domain.ErrInsufficientStock, parkedQty, totalOnHand, resolved)
	}
	available := totalOnHand - parkedQty
	if !allowNegative && available < requiredQty {
		return nil, fmt.Errorf("%w: parte %s, disponible %d, solicitado %d",
			domain.ErrInsufficientStock, resolved, available, requiredQty)
	}

	fifoLot := resolveFifoLot(rows, parkedQty)
	if requestedRack != "" && fifoLot != nil && fifoLot.Rack != "" && !sameRack(fifoLot.Rack, requestedRack) {
		return nil, fmt.Errorf("%w: parte %s, rack FIFO %s, solicitado %s",
			domain.ErrFifoViolation, resolved, fifoLot.Rack, requestedRack)
	}
	pickedLot := resolvePickedLot(rows, requestedRack, fifoLot)

	ctx := &PickContext{
		ResolvedPartNumber: resolved,
		WarehouseNo:        oldest.WarehouseNo,
		StorageLocation:    oldest.StorageLocation,
		Rack:               oldest.Rack,
		Bin:                oldest.Bin,
	}
	if pickedLot != nil {
		ctx.WarehouseNo = pickedLot.WarehouseNo
		ctx.StorageLocation = pickedLot.StorageLocation
		ctx.Rack = pickedLot.Rack
		ctx.Bin = pickedLot.Bin
		ctx.ActualRack = pickedLot.Rack
		if pickedLot.PartIndicator != "" {
			ctx.Remark = "pn_indicator=" + pickedLot.PartIndicator
		}
	}
	if fifoLot != nil {
		ctx.SuggestedRack = fifoLot.Rack
	}
	ctx.Reference = buildReference(partNumber, resolved, pickedLot)
	return ctx, nil
}

// SuggestPick devuelve las rebanadas FIFO disponibles por rack hasta cubrir
// requiredQty, descontando primero la cantidad reservada. Solo lectura.
func (e *PickAllocationEngine) SuggestPick(warehouseNo, partNumber string, requiredQty int) ([]PickSuggestion, error) {
	rows, err := e.lots.ListByWarehousePart(warehouseNo, partNumber)
	if err != nil {
		return nil, err
	}
	parkedQty, err := e.movs.SumAbsByWarehousePartAndTypes(warehouseNo, partNumber, parkedTypes)
	if err != nil {
		return nil, err
	}

	totalOnHand := 0
	for _, row := range rows {
		if err := assertNonNegative(row); err != nil {
			return nil, err
		}
		totalOnHand += row.Quantity
	}
	if parkedQty > totalOnHand {
		return nil, fmt.Errorf("%w: reservado %d excede el físico %d de %s",
			domain.ErrInsufficientStock, parkedQty, totalOnHand, partNumber)
	}

	var suggestions []PickSuggestion
	remainingParked := parkedQty
	remainingRequired := requiredQty
	for _, row := range rows {
		available := row.Quantity
		if remainingParked > 0 {
			if available <= remainingParked {
				remainingParked -= available
				continue
			}
			available -= remainingParked
			remainingParked = 0
		}
		if available <= 0 {
			continue
		}
		s := PickSuggestion{
			PartNumber:   row.PartNumber,
			Rack:         row.Rack,
			AvailableQty: available,
		}
		if !row.CreatedAt.IsZero() {
			s.FifoDate = row.CreatedAt.Format(fifoDateLayout)
		}
		suggestions = append(suggestions, s)

		if remainingRequired <= available {
			break
		}
		remainingRequired -= available
	}
	return suggestions, nil
}

// SplitQtyAcrossSuggestions reparte requiredQty sobre las sugerencias FIFO y
// produce los splits de drum correspondientes (picks de cable que cruzan
// varios drums).
func (e *PickAllocationEngine) SplitQtyAcrossSuggestions(suggestions []PickSuggestion, requiredQty int) ([]SplitRequest, error) {
	var splits []SplitRequest
	remaining := requiredQty
	for _, s := range suggestions {
		if remaining <= 0 {
			break
		}
		take := s.AvailableQty
		if remaining < take {
			take = remaining
		}
		splits = append(splits, SplitRequest{Rack: s.Rack, Qty: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%w: lo solicitado excede los splits disponibles", domain.ErrInsufficientStock)
	}
	return splits, nil
}

// resolveFifoLot encuentra el lote más antiguo con cantidad restante después
// de "gastar" la cantidad reservada contra los lotes en orden FIFO.
func resolveFifoLot(rows []*entity.StockLot, parkedQty int) *entity.StockLot {
	remainingParked := parkedQty
	for _, row := range rows {
		available := row.Quantity
		if remainingParked > 0 {
			if available <= remainingParked {
				remainingParked -= available
				continue
			}
			return row
		}
		if available > 0 {
			return row
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// resolvePickedLot elige el lote que coincide con el rack pedido o el
// fallback FIFO si no se pidió rack o no hay coincidencia.
func resolvePickedLot(rows []*entity.StockLot, requestedRack string, fallback *entity.StockLot) *entity.StockLot {
	if requestedRack == "" {
		return fallback
	}
	for _, row := range rows {
		if row.Rack != "" && sameRack(row.Rack, requestedRack) {
			return row
		}
	}
	return fallback
}

// buildReference anota trazabilidad: la parte original cuando hubo
// sustitución por jerarquía, o indicador+rack cuando se pickea un split o
// corte de drum.
func buildReference(originalPart, resolvedPart string, pickedLot *entity.StockLot) string {
	if !strings.EqualFold(originalPart, resolvedPart) {
		return originalPart
	}
	if pickedLot == nil {
		return ""
	}
	if entity.IsDrumPortion(pickedLot.PartIndicator) {
		return pickedLot.PartIndicator + ":" + pickedLot.Rack
	}
	return ""
}
