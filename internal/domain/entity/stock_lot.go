package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicadores de parte (códigos cortos en BD, como los usa el WMS legado).
const (
	IndicatorPlain     = ""    // parte simple, sin jerarquía
	IndicatorParent    = "P"   // kit padre; su cantidad es derivada
	IndicatorChild     = "C"   // componente de un kit
	IndicatorDrum      = "D"   // drum principal (bulto)
	IndicatorDrumSplit = "DQ"  // sub-lote producto de un split
	IndicatorDrumCut   = "DQC" // corte de un split
	IndicatorRoll      = "R"   // rollo, convertible a unidades por baseQty
)

// IsDrumPortion indica si el código corresponde a un split o a un corte.
func IsDrumPortion(indicator string) bool {
	return indicator == IndicatorDrumSplit || indicator == IndicatorDrumCut
}

// StockLot es un lote físico: una cantidad de una parte en una ubicación.
// La clave natural es (warehouseNo, storageLocation, partNumber, rack, drumNumber);
// pueden existir varios lotes por parte y CreatedAt define el orden FIFO.
// La cantidad solo muta vía deducción confirmada, ajustes o split/cut; los
// lotes nunca se borran físicamente (quedan en cero al agotarse).
type StockLot struct {
	ID                string
	WarehouseNo       string
	StorageLocation   string
	PartNumber        string
	SecondaryPartCode string // código alterno (SAP PN en el sistema legado)
	ParentPartNumber  string // vacío si no pertenece a un kit
	PartIndicator     string
	Description       string
	UOM               string
	BaseQty           decimal.Decimal // factor de conversión; > 0, default 1
	Quantity          int
	Rack              string
	Bin               string
	CombinedRackLabel string
	DrumNumber        int
	DrumQty           decimal.Decimal
	VendorName        string
	Category          string
	SubCategory       string
	CreatedAt         time.Time // ancla FIFO
	ReceivedAt        *time.Time
}

// EffectiveBaseQty devuelve BaseQty saneado: si es <= 0 se asume 1.
func (l *StockLot) EffectiveBaseQty() decimal.Decimal {
	if l.BaseQty.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return l.BaseQty
}
