package entity

// Actor es la identidad pre-autorizada que ejecuta una operación sensible.
// La verificación de rol y credencial ocurre en el colaborador de
// autorización, fuera de este core; aquí solo viaja la identidad para el
// registro de movimientos y la descripción de auditoría.
type Actor struct {
	UserID   string
	Username string
}
