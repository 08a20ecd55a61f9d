package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
	domstock "github.com/jhoicas/godam-core/internal/domain/stock"
	"github.com/jhoicas/godam-core/pkg/logger"
)

// HierarchyResolver resuelve relaciones padre/hijo y la descomposición
// drum -> split -> cut, validando que las cantidades se conserven en cada
// nivel. Las lecturas van contra el pool; split y cut son transaccionales
// con bloqueo de fila.
type HierarchyResolver struct {
	txRunner TxRunner
	lots     repository.StockLotRepository
	audit    AuditLog
	log      *logger.Logger
}

// NewHierarchyResolver construye el resolver.
func NewHierarchyResolver(txRunner TxRunner, lots repository.StockLotRepository, audit AuditLog, log *logger.Logger) *HierarchyResolver {
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &HierarchyResolver{txRunner: txRunner, lots: lots, audit: audit, log: log}
}

// SplitRequest describe un sub-lote a crear al dividir un drum.
type SplitRequest struct {
	Rack string
	Bin  string
	Qty  int
}

// ExpandedStock es un lote padre junto con sus hijos resueltos.
type ExpandedStock struct {
	Parent   *entity.StockLot
	Children []*entity.StockLot
}

// ResolveMainPart devuelve la parte principal a la que debe bookearse un
// pick: si part tiene lotes CHILD con parent_pn definido, retorna ese padre;
// si no, retorna part sin cambios.
func (h *HierarchyResolver) ResolveMainPart(partNumber string) (string, error) {
	return resolveMainPart(h.lots, partNumber)
}

// ParentComputedQty calcula la cantidad derivada del kit: suma de
// qty*baseQty de todos los lotes CHILD, redondeada a unidades enteras.
func (h *HierarchyResolver) ParentComputedQty(parentPartNumber string) (int, error) {
	children, err := h.lots.ListByParentPart(parentPartNumber)
	if err != nil {
		return 0, err
	}
	return domstock.ParentComputedQty(children), nil
}

// ValidateParentTotals verifica la conservación padre/hijo: con hijos
// presentes, la cantidad almacenada del padre debe igualar la calculada.
func (h *HierarchyResolver) ValidateParentTotals(parentPartNumber string) error {
	return validateParentTotals(h.lots, parentPartNumber)
}

// ValidateDrumSplitTotals verifica la conservación del drum: existiendo
// splits o cortes, su suma debe igualar la cantidad del drum principal.
func (h *HierarchyResolver) ValidateDrumSplitTotals(partNumber string) error {
	return validateDrumSplitTotals(h.lots, partNumber)
}

// RollQtyInUnits convierte un lote ROLL a unidades; residuo no nulo falla.
func (h *HierarchyResolver) RollQtyInUnits(lot *entity.StockLot) (int, error) {
	return domstock.RollUnits(lot)
}

// ExpandParentStock devuelve el lote padre y sus hijos para visualización,
// validando de paso la conservación de cantidades.
func (h *HierarchyResolver) ExpandParentStock(parentPartNumber string) (*ExpandedStock, error) {
	parents, err := h.lots.ListByPartAndIndicator(parentPartNumber, entity.IndicatorParent)
	if err != nil {
		return nil, err
	}
	var parent *entity.StockLot
	if len(parents) > 0 {
		parent = parents[0]
	} else {
		rows, err := h.lots.ListByPart(parentPartNumber)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			parent = rows[0]
		}
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: stock padre para %s", domain.ErrNotFound, parentPartNumber)
	}

	children, err := h.lots.ListByParentPart(parentPartNumber)
	if err != nil {
		return nil, err
	}
	calculated := domstock.ParentComputedQty(children)
	if calculated > 0 && calculated != parent.Quantity {
		return nil, fmt.Errorf("%w: padre %s esperaba %d y tiene %d",
			domain.ErrQuantityMismatch, parentPartNumber, calculated, parent.Quantity)
	}
	return &ExpandedStock{Parent: parent, Children: children}, nil
}

// SplitDrum divide el drum principal de una parte en sub-lotes DQ. La suma
// de los splits debe igualar exactamente la cantidad del drum; el drum
// principal no se pone en cero: su cantidad queda como objetivo de
// conservación que ValidateDrumSplitTotals verifica.
func (h *HierarchyResolver) SplitDrum(ctx context.Context, partNumber string, splits []SplitRequest, actor entity.Actor) ([]*entity.StockLot, error) {
	if len(splits) == 0 {
		return nil, fmt.Errorf("%w: sin splits para %s", domain.ErrInvalidInput, partNumber)
	}
	sum := 0
	for _, s := range splits {
		if s.Qty < 0 {
			return nil, fmt.Errorf("%w: split con cantidad negativa para %s", domain.ErrSplitMismatch, partNumber)
		}
		sum += s.Qty
	}

	var created []*entity.StockLot
	err := h.txRunner.Run(ctx, func(lotRepo repository.StockLotRepository, _ repository.StockMovementRepository) error {
		mains, err := lotRepo.ListByPartAndIndicator(partNumber, entity.IndicatorDrum)
		if err != nil {
			return err
		}
		if len(mains) == 0 {
			return fmt.Errorf("%w: drum principal para %s", domain.ErrNotFound, partNumber)
		}
		if len(mains) > 1 {
			return fmt.Errorf("%w: %d drums principales para %s", domain.ErrInvalidInput, len(mains), partNumber)
		}
		main, err := lotRepo.GetByIDForUpdate(mains[0].ID)
		if err != nil {
			return err
		}
		if sum != main.Quantity {
			return fmt.Errorf("%w: parte %s, splits %d vs drum %d",
				domain.ErrSplitMismatch, partNumber, sum, main.Quantity)
		}

		now := time.Now()
		for _, s := range splits {
			child := &entity.StockLot{
				ID:                uuid.New().String(),
				WarehouseNo:       main.WarehouseNo,
				StorageLocation:   main.StorageLocation,
				PartNumber:        main.PartNumber,
				SecondaryPartCode: main.SecondaryPartCode,
				ParentPartNumber:  main.ParentPartNumber,
				PartIndicator:     entity.IndicatorDrumSplit,
				Description:       main.Description,
				UOM:               main.UOM,
				BaseQty:           main.BaseQty,
				Quantity:          s.Qty,
				Rack:              s.Rack,
				Bin:               s.Bin,
				CombinedRackLabel: main.CombinedRackLabel,
				DrumNumber:        main.DrumNumber,
				DrumQty:           main.DrumQty,
				VendorName:        main.VendorName,
				Category:          main.Category,
				SubCategory:       main.SubCategory,
				CreatedAt:         now,
			}
			if err := lotRepo.Create(child); err != nil {
				return err
			}
			created = append(created, child)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.audit.Record(ctx, actor.Username, splitDescription(partNumber, splits))
	if h.log != nil {
		h.log.Info().Str("part", partNumber).Int("splits", len(created)).Msg("drum dividido")
	}
	return created, nil
}

// CutDrum descuenta cutQty de un lote DQ/DQC y crea un lote DQC nuevo en el
// rack/bin indicado. El lote origen nunca queda negativo.
func (h *HierarchyResolver) CutDrum(ctx context.Context, splitLotID string, cutQty int, rack, bin string, actor entity.Actor) (*entity.StockLot, error) {
	var cut *entity.StockLot
	err := h.txRunner.Run(ctx, func(lotRepo repository.StockLotRepository, _ repository.StockMovementRepository) error {
		split, err := lotRepo.GetByIDForUpdate(splitLotID)
		if err != nil {
			return err
		}
		if split == nil {
			return fmt.Errorf("%w: lote split %s", domain.ErrNotFound, splitLotID)
		}
		if !entity.IsDrumPortion(split.PartIndicator) {
			return fmt.Errorf("%w: el lote %s no es un split de drum", domain.ErrInvalidCut, splitLotID)
		}
		if cutQty <= 0 || cutQty > split.Quantity {
			return fmt.Errorf("%w: parte %s, cut %d sobre split %d",
				domain.ErrInvalidCut, split.PartNumber, cutQty, split.Quantity)
		}

		split.Quantity -= cutQty
		if err := assertNonNegative(split); err != nil {
			return err
		}
		if err := lotRepo.Update(split); err != nil {
			return err
		}

		cutRack := rack
		if cutRack == "" {
			cutRack = split.Rack
		}
		cutBin := bin
		if cutBin == "" {
			cutBin = split.Bin
		}
		cut = &entity.StockLot{
			ID:                uuid.New().String(),
			WarehouseNo:       split.WarehouseNo,
			StorageLocation:   split.StorageLocation,
			PartNumber:        split.PartNumber,
			SecondaryPartCode: split.SecondaryPartCode,
			ParentPartNumber:  split.ParentPartNumber,
			PartIndicator:     entity.IndicatorDrumCut,
			Description:       split.Description,
			UOM:               split.UOM,
			BaseQty:           split.BaseQty,
			Quantity:          cutQty,
			Rack:              cutRack,
			Bin:               cutBin,
			CombinedRackLabel: split.CombinedRackLabel,
			DrumNumber:        split.DrumNumber,
			DrumQty:           split.DrumQty,
			VendorName:        split.VendorName,
			Category:          split.Category,
			SubCategory:       split.SubCategory,
			CreatedAt:         time.Now(),
		}
		return lotRepo.Create(cut)
	})
	if err != nil {
		return nil, err
	}

	h.audit.Record(ctx, actor.Username,
		fmt.Sprintf("cut drum: lote %s qty %d -> rack %s", splitLotID, cutQty, cut.Rack))
	if h.log != nil {
		h.log.Info().Str("part", cut.PartNumber).Int("cut_qty", cutQty).Msg("drum cortado")
	}
	return cut, nil
}

func splitDescription(partNumber string, splits []SplitRequest) string {
	parts := make([]string, 0, len(splits))
	for _, s := range splits {
		parts = append(parts, fmt.Sprintf("%s=%d", s.Rack, s.Qty))
	}
	return fmt.Sprintf("split drum %s: %s", partNumber, strings.Join(parts, ", "))
}

// ── helpers compartidos por los motores del paquete ──────────────────────────

func resolveMainPart(lots repository.StockLotRepository, partNumber string) (string, error) {
	children, err := lots.ListByPartAndIndicator(partNumber, entity.IndicatorChild)
	if err != nil {
		return "", err
	}
	if len(children) > 0 && children[0].ParentPartNumber != "" {
		return children[0].ParentPartNumber, nil
	}
	return partNumber, nil
}

func validateParentTotals(lots repository.StockLotRepository, parentPartNumber string) error {
	children, err := lots.ListByParentPart(parentPartNumber)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	calculated := domstock.ParentComputedQty(children)
	parents, err := lots.ListByPartAndIndicator(parentPartNumber, entity.IndicatorParent)
	if err != nil {
		return err
	}
	if len(parents) == 0 {
		return fmt.Errorf("%w: falta el lote padre para %s", domain.ErrQuantityMismatch, parentPartNumber)
	}
	if calculated != parents[0].Quantity {
		return fmt.Errorf("%w: padre %s esperaba %d y tiene %d",
			domain.ErrQuantityMismatch, parentPartNumber, calculated, parents[0].Quantity)
	}
	return nil
}

func validateDrumSplitTotals(lots repository.StockLotRepository, partNumber string) error {
	mains, err := lots.ListByPartAndIndicator(partNumber, entity.IndicatorDrum)
	if err != nil {
		return err
	}
	if len(mains) == 0 {
		return nil
	}
	main := mains[0]

	splitSum := 0
	for _, indicator := range []string{entity.IndicatorDrumSplit, entity.IndicatorDrumCut} {
		rows, err := lots.ListByPartAndIndicator(partNumber, indicator)
		if err != nil {
			return err
		}
		for _, row := range rows {
			splitSum += row.Quantity
		}
	}
	if splitSum > 0 && splitSum != main.Quantity {
		return fmt.Errorf("%w: drum %s con splits %d vs principal %d",
			domain.ErrQuantityMismatch, partNumber, splitSum, main.Quantity)
	}
	return nil
}

// assertNonNegative aborta si una cantidad quedó negativa: eso indica un bug
// aguas arriba y la transacción no debe confirmarse.
func assertNonNegative(lot *entity.StockLot) error {
	if lot.Quantity < 0 {
		return fmt.Errorf("%w: parte %s, lote %s", domain.ErrNegativeStock, lot.PartNumber, lot.ID)
	}
	return nil
}

func sameRack(a, b string) bool {
	return strings.EqualFold(a, b)
}
