package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `
	id, movement_type, COALESCE(warehouse_no, ''), COALESCE(storage_location, ''),
	COALESCE(part_number, ''), qty_change, COALESCE(sales_order, ''),
	COALESCE(invoice_number, ''), COALESCE(dn_number, ''),
	COALESCE(rack, ''), COALESCE(bin, ''), COALESCE(suggested_rack, ''),
	COALESCE(actual_rack, ''), COALESCE(picked_qty, 0), COALESCE(requested_qty, 0),
	COALESCE(reference, ''), COALESCE(remark, ''), COALESCE(created_by, ''), created_at`

// StockMovementRepo implementación del ledger sobre PostgreSQL (pool o tx).
// El ledger es append-only: no existe UPDATE genérico, solo el backfill del
// número de remisión.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row rowScanner) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var code string
	err := row.Scan(
		&m.ID, &code, &m.WarehouseNo, &m.StorageLocation,
		&m.PartNumber, &m.QtyChange, &m.SalesOrder,
		&m.InvoiceNumber, &m.DeliveryNoteNumber,
		&m.Rack, &m.Bin, &m.SuggestedRack,
		&m.ActualRack, &m.PickedQty, &m.RequestedQty,
		&m.Reference, &m.Remark, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type, err = entity.MovementTypeFromCode(code)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *StockMovementRepo) queryMovements(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Create persiste un movimiento; genera el id si viene vacío.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.Type.Code() == "" {
		return fmt.Errorf("create movement: tipo desconocido %v", movement.Type)
	}
	query := `
		INSERT INTO stock_movements (
			id, movement_type, warehouse_no, storage_location, part_number,
			qty_change, sales_order, invoice_number, dn_number, rack, bin,
			suggested_rack, actual_rack, picked_qty, requested_qty,
			reference, remark, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.Type.Code(), movement.WarehouseNo, movement.StorageLocation,
		movement.PartNumber, movement.QtyChange, movement.SalesOrder,
		movement.InvoiceNumber, movement.DeliveryNoteNumber,
		movement.Rack, movement.Bin, movement.SuggestedRack, movement.ActualRack,
		movement.PickedQty, movement.RequestedQty,
		movement.Reference, movement.Remark, movement.CreatedBy, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por id, nil si no existe.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(context.Background(),
		`SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListBySalesOrder lista los movimientos de un sales order, cronológicos.
func (r *StockMovementRepo) ListBySalesOrder(salesOrder string) ([]*entity.StockMovement, error) {
	return r.queryMovements(`SELECT `+movementColumns+`
		FROM stock_movements WHERE sales_order = $1 ORDER BY created_at ASC`, salesOrder)
}

// LatestBySalesOrder devuelve el movimiento más reciente del sales order,
// nil si no hay.
func (r *StockMovementRepo) LatestBySalesOrder(salesOrder string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(context.Background(),
		`SELECT `+movementColumns+`
		 FROM stock_movements WHERE sales_order = $1 ORDER BY created_at DESC LIMIT 1`, salesOrder))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest movement: %w", err)
	}
	return m, nil
}

// ListRecent pagina los movimientos, recientes primero.
func (r *StockMovementRepo) ListRecent(limit, offset int) ([]*entity.StockMovement, error) {
	return r.queryMovements(`SELECT `+movementColumns+`
		FROM stock_movements ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

// SumAbsByWarehousePartAndTypes suma |qty_change| para los tipos dados.
func (r *StockMovementRepo) SumAbsByWarehousePartAndTypes(warehouseNo, partNumber string, types []entity.MovementType) (int, error) {
	codes := make([]string, 0, len(types))
	for _, t := range types {
		codes = append(codes, t.Code())
	}
	var sum int
	err := r.q.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(ABS(qty_change)), 0)
		FROM stock_movements
		WHERE warehouse_no = $1 AND part_number = $2 AND movement_type = ANY($3)`,
		warehouseNo, partNumber, codes).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum parked qty: %w", err)
	}
	return sum, nil
}

// SumBySalesOrderPartAndType suma qty_change con signo para un sales order,
// parte y tipo.
func (r *StockMovementRepo) SumBySalesOrderPartAndType(salesOrder, partNumber string, movementType entity.MovementType) (int, error) {
	var sum int
	err := r.q.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(qty_change), 0)
		FROM stock_movements
		WHERE sales_order = $1 AND part_number = $2 AND movement_type = $3`,
		salesOrder, partNumber, movementType.Code()).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum by sales order: %w", err)
	}
	return sum, nil
}

// UpdateDeliveryNoteNumber asigna el número de remisión a los movimientos
// del sales order (única mutación permitida sobre el ledger).
func (r *StockMovementRepo) UpdateDeliveryNoteNumber(salesOrder, deliveryNoteNumber string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE stock_movements SET dn_number = $2 WHERE sales_order = $1`,
		salesOrder, deliveryNoteNumber)
	if err != nil {
		return fmt.Errorf("backfill dn number: %w", err)
	}
	return nil
}
