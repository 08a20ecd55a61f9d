package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
)

var _ repository.StockLotRepository = (*StockLotRepo)(nil)

// lotColumns es la proyección estándar de stock_lots. Los textos anulables
// salen con COALESCE para mapear NULL -> "".
const lotColumns = `
	id, warehouse_no, storage_location, part_number,
	COALESCE(sap_pn, ''), COALESCE(parent_pn, ''), COALESCE(pn_indicator, ''),
	COALESCE(description, ''), COALESCE(uom, ''), base_qty, qty,
	COALESCE(rack, ''), COALESCE(bin, ''), COALESCE(combine_rack, ''),
	COALESCE(drum_no, 0), COALESCE(drum_qty, 0),
	COALESCE(vendor_name, ''), COALESCE(category, ''), COALESCE(sub_category, ''),
	created_at, received_at`

// StockLotRepo implementación de StockLotRepository sobre PostgreSQL
// (usable con pool o tx).
type StockLotRepo struct {
	q Querier
}

// NewStockLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLotRepository(q Querier) *StockLotRepo {
	return &StockLotRepo{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*entity.StockLot, error) {
	var l entity.StockLot
	err := row.Scan(
		&l.ID, &l.WarehouseNo, &l.StorageLocation, &l.PartNumber,
		&l.SecondaryPartCode, &l.ParentPartNumber, &l.PartIndicator,
		&l.Description, &l.UOM, &l.BaseQty, &l.Quantity,
		&l.Rack, &l.Bin, &l.CombinedRackLabel,
		&l.DrumNumber, &l.DrumQty,
		&l.VendorName, &l.Category, &l.SubCategory,
		&l.CreatedAt, &l.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *StockLotRepo) queryLots(query string, args ...any) ([]*entity.StockLot, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stock lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock lot: %w", err)
		}
		list = append(list, lot)
	}
	return list, rows.Err()
}

func (r *StockLotRepo) getOne(query string, args ...any) (*entity.StockLot, error) {
	lot, err := scanLot(r.q.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock lot: %w", err)
	}
	return lot, nil
}

// GetByID obtiene un lote por id, nil si no existe.
func (r *StockLotRepo) GetByID(id string) (*entity.StockLot, error) {
	return r.getOne(`SELECT `+lotColumns+` FROM stock_lots WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *StockLotRepo) GetByIDForUpdate(id string) (*entity.StockLot, error) {
	return r.getOne(`SELECT `+lotColumns+` FROM stock_lots WHERE id = $1 FOR UPDATE`, id)
}

// ListByPart lista los lotes de una parte en orden FIFO (created_at asc).
func (r *StockLotRepo) ListByPart(partNumber string) ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT `+lotColumns+`
		FROM stock_lots WHERE part_number = $1 ORDER BY created_at ASC`, partNumber)
}

// ListByPartForUpdate como ListByPart pero bloqueando las filas; solo tiene
// sentido dentro de una transacción.
func (r *StockLotRepo) ListByPartForUpdate(partNumber string) ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT `+lotColumns+`
		FROM stock_lots WHERE part_number = $1 ORDER BY created_at ASC FOR UPDATE`, partNumber)
}

// ListByWarehousePart lista por bodega y parte en orden FIFO.
func (r *StockLotRepo) ListByWarehousePart(warehouseNo, partNumber string) ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT `+lotColumns+`
		FROM stock_lots WHERE warehouse_no = $1 AND part_number = $2 ORDER BY created_at ASC`,
		warehouseNo, partNumber)
}

// ListByPartAndIndicator filtra por indicador (P, C, D, DQ, DQC, R) en orden FIFO.
func (r *StockLotRepo) ListByPartAndIndicator(partNumber, indicator string) ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT `+lotColumns+`
		FROM stock_lots WHERE part_number = $1 AND UPPER(COALESCE(pn_indicator, '')) = UPPER($2)
		ORDER BY created_at ASC`, partNumber, indicator)
}

// ListByParentPart lista los lotes hijos de un kit en orden FIFO.
func (r *StockLotRepo) ListByParentPart(parentPartNumber string) ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT `+lotColumns+`
		FROM stock_lots WHERE parent_pn = $1 ORDER BY created_at ASC`, parentPartNumber)
}

// ListByWarehouse lista los lotes de una bodega, recientes primero.
func (r *StockLotRepo) ListByWarehouse(warehouseNo string) ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT `+lotColumns+`
		FROM stock_lots WHERE warehouse_no = $1 ORDER BY created_at DESC`, warehouseNo)
}

// ListAll lista todo el stock.
func (r *StockLotRepo) ListAll() ([]*entity.StockLot, error) {
	return r.queryLots(`SELECT ` + lotColumns + ` FROM stock_lots ORDER BY created_at DESC`)
}

// FindByNaturalKey busca por la clave natural del lote, nil si no existe.
func (r *StockLotRepo) FindByNaturalKey(warehouseNo, storageLocation, partNumber, rack string, drumNumber int) (*entity.StockLot, error) {
	return r.getOne(`SELECT `+lotColumns+`
		FROM stock_lots
		WHERE warehouse_no = $1 AND storage_location = $2 AND part_number = $3
		  AND COALESCE(rack, '') = $4 AND COALESCE(drum_no, 0) = $5
		ORDER BY created_at ASC LIMIT 1`,
		warehouseNo, storageLocation, partNumber, rack, drumNumber)
}

// Create inserta un lote nuevo; genera el id si viene vacío.
func (r *StockLotRepo) Create(lot *entity.StockLot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_lots (
			id, warehouse_no, storage_location, part_number, sap_pn, parent_pn,
			pn_indicator, description, uom, base_qty, qty, rack, bin, combine_rack,
			drum_no, drum_qty, vendor_name, category, sub_category, created_at, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.WarehouseNo, lot.StorageLocation, lot.PartNumber,
		lot.SecondaryPartCode, lot.ParentPartNumber, lot.PartIndicator,
		lot.Description, lot.UOM, lot.BaseQty, lot.Quantity,
		lot.Rack, lot.Bin, lot.CombinedRackLabel,
		lot.DrumNumber, lot.DrumQty,
		lot.VendorName, lot.Category, lot.SubCategory,
		lot.CreatedAt, lot.ReceivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock lot: %w", err)
	}
	return nil
}

// Update reescribe el lote completo por id. CreatedAt no se toca: es el
// ancla FIFO.
func (r *StockLotRepo) Update(lot *entity.StockLot) error {
	query := `
		UPDATE stock_lots SET
			warehouse_no = $2, storage_location = $3, part_number = $4, sap_pn = $5,
			parent_pn = $6, pn_indicator = $7, description = $8, uom = $9,
			base_qty = $10, qty = $11, rack = $12, bin = $13, combine_rack = $14,
			drum_no = $15, drum_qty = $16, vendor_name = $17, category = $18,
			sub_category = $19, received_at = $20
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.WarehouseNo, lot.StorageLocation, lot.PartNumber, lot.SecondaryPartCode,
		lot.ParentPartNumber, lot.PartIndicator, lot.Description, lot.UOM,
		lot.BaseQty, lot.Quantity, lot.Rack, lot.Bin, lot.CombinedRackLabel,
		lot.DrumNumber, lot.DrumQty, lot.VendorName, lot.Category,
		lot.SubCategory, lot.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock lot %s: fila no encontrada", lot.ID)
	}
	return nil
}
