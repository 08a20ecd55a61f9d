// Package stock contiene servicios de dominio puros sobre lotes: cálculos
// de conversión de cantidades sin acceso a persistencia.
package stock

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
)

// ParentComputedQty calcula la cantidad derivada de un kit padre:
// sum(child.Quantity * child.BaseQty) redondeada a la unidad entera más
// cercana. Los hijos con BaseQty <= 0 cuentan con factor 1.
func ParentComputedQty(children []*entity.StockLot) int {
	total := decimal.Zero
	for _, child := range children {
		qty := decimal.NewFromInt(int64(child.Quantity))
		total = total.Add(qty.Mul(child.EffectiveBaseQty()))
	}
	return int(total.Round(0).IntPart())
}

// RollUnits convierte la cantidad de un lote ROLL a unidades dividiendo por
// BaseQty. Si la división deja residuo falla con ErrInexactConversion: no se
// redondea en silencio.
func RollUnits(lot *entity.StockLot) (int, error) {
	if lot.PartIndicator != entity.IndicatorRoll {
		return 0, fmt.Errorf("%w: la parte %s no es un rollo", domain.ErrInvalidInput, lot.PartNumber)
	}
	total := decimal.NewFromInt(int64(lot.Quantity))
	base := lot.EffectiveBaseQty()
	units, remainder := total.QuoRem(base, 0)
	if !remainder.IsZero() {
		return 0, fmt.Errorf("%w: parte %s, qty %d / base %s",
			domain.ErrInexactConversion, lot.PartNumber, lot.Quantity, base.String())
	}
	return int(units.IntPart()), nil
}

// TotalOnHand suma la cantidad física de una lista de lotes.
func TotalOnHand(lots []*entity.StockLot) int {
	total := 0
	for _, lot := range lots {
		total += lot.Quantity
	}
	return total
}
