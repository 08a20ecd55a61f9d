package domain

import "errors"

// Errores de dominio (sin dependencias externas). Cada categoría del motor
// de inventario tiene su sentinela; los call sites envuelven con %w para
// agregar parte/rack y los callers comparan con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrDuplicate         = errors.New("registro duplicado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrQuantityMismatch  = errors.New("cantidades no conservadas en la jerarquía")
	ErrFifoViolation     = errors.New("violación del orden FIFO")
	ErrSplitMismatch     = errors.New("la suma de splits no coincide con el drum principal")
	ErrInvalidCut        = errors.New("corte de drum inválido")
	ErrInexactConversion = errors.New("conversión de rollo con residuo")
	ErrNegativeStock     = errors.New("cantidad de stock negativa")
	ErrInvalidAdjustment = errors.New("ajuste inválido: indicar add qty o reduce qty, no ambos")
)
