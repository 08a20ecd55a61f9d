package stock

import (
	"context"

	"github.com/jhoicas/godam-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza la atomicidad de las mutaciones:
// o se confirman todos los updates de lotes y el registro de movimiento, o
// ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.StockLotRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// AuditLog recibe la descripción textual de ajustes, splits y cortes.
// Este core emite la descripción; el colaborador de auditoría la persiste.
type AuditLog interface {
	Record(ctx context.Context, performedBy, description string)
}

// NopAuditLog descarta las descripciones. Útil en tests y en callers que ya
// auditan por su cuenta.
type NopAuditLog struct{}

func (NopAuditLog) Record(ctx context.Context, performedBy, description string) {}
