// Package audit persiste las descripciones de actividad administrativa
// (ajustes, splits y cortes) como eventos estructurados.
package audit

import (
	"context"

	"github.com/jhoicas/godam-core/internal/application/stock"
	"github.com/jhoicas/godam-core/pkg/logger"
)

var _ stock.AuditLog = (*Log)(nil)

// Log emite cada registro de auditoría por el logger estructurado. Los
// despliegues que necesitan retención larga agregan estos eventos desde el
// stream JSON.
type Log struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Record(ctx context.Context, performedBy, description string) {
	l.log.Info().
		Str("performed_by", performedBy).
		Str("description", description).
		Msg("actividad administrativa registrada")
}
