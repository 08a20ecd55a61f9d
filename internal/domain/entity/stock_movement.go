package entity

import (
	"fmt"
	"time"
)

// MovementType identifica el tipo de transición en el ledger de movimientos.
// La taxonomía es fija: pipeline outbound O101..O109, inbound I201/I202 y
// ajustes A101/A102 (ortogonales a los pipelines).
type MovementType int

const (
	MovementUnknown MovementType = iota
	MovementUploaded
	MovementPickRequested
	MovementPicked
	MovementChecked
	MovementConfirmed
	MovementLoaded
	MovementInTransit
	MovementDelivered
	MovementClosed
	MovementInboundReceived
	MovementPutaway
	MovementAdjustIncrease
	MovementAdjustDecrease
)

// movementCodes es la tabla bidireccional variante <-> código de BD.
// Se valida en init: toda variante de AllMovementTypes debe tener código y
// los códigos deben ser únicos.
var movementCodes = map[MovementType]string{
	MovementUploaded:        "O101",
	MovementPickRequested:   "O102",
	MovementPicked:          "O103",
	MovementChecked:         "O104",
	MovementConfirmed:       "O105",
	MovementLoaded:          "O106",
	MovementInTransit:       "O107",
	MovementDelivered:       "O108",
	MovementClosed:          "O109",
	MovementInboundReceived: "I201",
	MovementPutaway:         "I202",
	MovementAdjustIncrease:  "A101",
	MovementAdjustDecrease:  "A102",
}

var movementByCode = make(map[string]MovementType, len(movementCodes))

func init() {
	for _, t := range AllMovementTypes() {
		code, ok := movementCodes[t]
		if !ok {
			panic(fmt.Sprintf("movement type %d sin código asignado", t))
		}
		if _, dup := movementByCode[code]; dup {
			panic(fmt.Sprintf("código de movimiento duplicado: %s", code))
		}
		movementByCode[code] = t
	}
	if len(movementCodes) != len(AllMovementTypes()) {
		panic("tabla de códigos de movimiento con entradas huérfanas")
	}
}

// AllMovementTypes devuelve todas las variantes válidas de la taxonomía.
func AllMovementTypes() []MovementType {
	return []MovementType{
		MovementUploaded, MovementPickRequested, MovementPicked,
		MovementChecked, MovementConfirmed, MovementLoaded,
		MovementInTransit, MovementDelivered, MovementClosed,
		MovementInboundReceived, MovementPutaway,
		MovementAdjustIncrease, MovementAdjustDecrease,
	}
}

// Code devuelve el código corto persistido en BD (ej. "O103").
func (t MovementType) Code() string {
	return movementCodes[t]
}

func (t MovementType) String() string {
	if code, ok := movementCodes[t]; ok {
		return code
	}
	return fmt.Sprintf("MovementType(%d)", int(t))
}

// MovementTypeFromCode resuelve el código de BD a su variante.
func MovementTypeFromCode(code string) (MovementType, error) {
	t, ok := movementByCode[code]
	if !ok {
		return MovementUnknown, fmt.Errorf("código de movimiento desconocido: %q", code)
	}
	return t, nil
}

// StockMovement es una entrada inmutable del ledger de movimientos.
// Una vez creada, solo DeliveryNoteNumber admite backfill posterior; todo lo
// demás es append-only. El "estado actual" de un sales order es el tipo de
// su registro más reciente.
type StockMovement struct {
	ID                 string
	Type               MovementType
	WarehouseNo        string
	StorageLocation    string
	PartNumber         string
	QtyChange          int // con signo
	SalesOrder         string
	InvoiceNumber      string
	DeliveryNoteNumber string
	Rack               string
	Bin                string
	SuggestedRack      string
	ActualRack         string
	PickedQty          int
	RequestedQty       int
	Reference          string
	Remark             string
	CreatedBy          string
	CreatedAt          time.Time
}
