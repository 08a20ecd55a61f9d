package stock_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los repositorios de lotes y movimientos, más un TxRunner
// que restaura el estado previo cuando el callback falla. Eso permite afirmar
// la semántica transaccional real de los motores (sin deducción parcial, sin
// splits huérfanos) sin una base de datos.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	lots []*entity.StockLot
	movs []*entity.StockMovement
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) snapshot() ([]*entity.StockLot, []*entity.StockMovement) {
	lots := make([]*entity.StockLot, len(s.lots))
	for i, l := range s.lots {
		c := *l
		lots[i] = &c
	}
	movs := make([]*entity.StockMovement, len(s.movs))
	for i, m := range s.movs {
		c := *m
		movs[i] = &c
	}
	return lots, movs
}

func (s *memStore) restore(lots []*entity.StockLot, movs []*entity.StockMovement) {
	s.lots = lots
	s.movs = movs
}

func (s *memStore) lotQty(id string) int {
	for _, l := range s.lots {
		if l.ID == id {
			return l.Quantity
		}
	}
	return -1
}

// ── repo de lotes ─────────────────────────────────────────────────────────────

type memLotRepo struct{ s *memStore }

var _ repository.StockLotRepository = (*memLotRepo)(nil)

// fifo filtra y ordena por created_at asc, igual que las consultas reales.
func (r *memLotRepo) fifo(match func(*entity.StockLot) bool) []*entity.StockLot {
	var out []*entity.StockLot
	for _, l := range r.s.lots {
		if match(l) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memLotRepo) GetByID(id string) (*entity.StockLot, error) {
	for _, l := range r.s.lots {
		if l.ID == id {
			c := *l
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memLotRepo) GetByIDForUpdate(id string) (*entity.StockLot, error) {
	return r.GetByID(id)
}

func (r *memLotRepo) ListByPart(partNumber string) ([]*entity.StockLot, error) {
	return r.fifo(func(l *entity.StockLot) bool { return l.PartNumber == partNumber }), nil
}

func (r *memLotRepo) ListByPartForUpdate(partNumber string) ([]*entity.StockLot, error) {
	return r.ListByPart(partNumber)
}

func (r *memLotRepo) ListByWarehousePart(warehouseNo, partNumber string) ([]*entity.StockLot, error) {
	return r.fifo(func(l *entity.StockLot) bool {
		return l.WarehouseNo == warehouseNo && l.PartNumber == partNumber
	}), nil
}

func (r *memLotRepo) ListByPartAndIndicator(partNumber, indicator string) ([]*entity.StockLot, error) {
	return r.fifo(func(l *entity.StockLot) bool {
		return l.PartNumber == partNumber && strings.EqualFold(l.PartIndicator, indicator)
	}), nil
}

func (r *memLotRepo) ListByParentPart(parentPartNumber string) ([]*entity.StockLot, error) {
	return r.fifo(func(l *entity.StockLot) bool { return l.ParentPartNumber == parentPartNumber }), nil
}

func (r *memLotRepo) ListByWarehouse(warehouseNo string) ([]*entity.StockLot, error) {
	return r.fifo(func(l *entity.StockLot) bool { return l.WarehouseNo == warehouseNo }), nil
}

func (r *memLotRepo) ListAll() ([]*entity.StockLot, error) {
	return r.fifo(func(*entity.StockLot) bool { return true }), nil
}

func (r *memLotRepo) FindByNaturalKey(warehouseNo, storageLocation, partNumber, rack string, drumNumber int) (*entity.StockLot, error) {
	rows := r.fifo(func(l *entity.StockLot) bool {
		return l.WarehouseNo == warehouseNo && l.StorageLocation == storageLocation &&
			l.PartNumber == partNumber && l.Rack == rack && l.DrumNumber == drumNumber
	})
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *memLotRepo) Create(lot *entity.StockLot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	c := *lot
	r.s.lots = append(r.s.lots, &c)
	return nil
}

func (r *memLotRepo) Update(lot *entity.StockLot) error {
	for i, l := range r.s.lots {
		if l.ID == lot.ID {
			c := *lot
			r.s.lots[i] = &c
			return nil
		}
	}
	return fmt.Errorf("lote %s no existe", lot.ID)
}

// ── repo de movimientos ───────────────────────────────────────────────────────

type memMovRepo struct{ s *memStore }

var _ repository.StockMovementRepository = (*memMovRepo)(nil)

func (r *memMovRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	c := *movement
	r.s.movs = append(r.s.movs, &c)
	return nil
}

func (r *memMovRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.s.movs {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memMovRepo) ListBySalesOrder(salesOrder string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movs {
		if m.SalesOrder == salesOrder {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memMovRepo) LatestBySalesOrder(salesOrder string) (*entity.StockMovement, error) {
	rows, _ := r.ListBySalesOrder(salesOrder)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (r *memMovRepo) ListRecent(limit, offset int) ([]*entity.StockMovement, error) {
	rows := make([]*entity.StockMovement, 0, len(r.s.movs))
	for _, m := range r.s.movs {
		c := *m
		rows = append(rows, &c)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *memMovRepo) SumAbsByWarehousePartAndTypes(warehouseNo, partNumber string, types []entity.MovementType) (int, error) {
	sum := 0
	for _, m := range r.s.movs {
		if m.WarehouseNo != warehouseNo || m.PartNumber != partNumber {
			continue
		}
		for _, t := range types {
			if m.Type == t {
				if m.QtyChange < 0 {
					sum -= m.QtyChange
				} else {
					sum += m.QtyChange
				}
				break
			}
		}
	}
	return sum, nil
}

func (r *memMovRepo) SumBySalesOrderPartAndType(salesOrder, partNumber string, movementType entity.MovementType) (int, error) {
	sum := 0
	for _, m := range r.s.movs {
		if m.SalesOrder == salesOrder && m.PartNumber == partNumber && m.Type == movementType {
			sum += m.QtyChange
		}
	}
	return sum, nil
}

func (r *memMovRepo) UpdateDeliveryNoteNumber(salesOrder, deliveryNoteNumber string) error {
	for _, m := range r.s.movs {
		if m.SalesOrder == salesOrder {
			m.DeliveryNoteNumber = deliveryNoteNumber
		}
	}
	return nil
}

// ── TxRunner con rollback ─────────────────────────────────────────────────────

type fakeTxRunner struct{ s *memStore }

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.StockLotRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	lots, movs := r.s.snapshot()
	if err := fn(&memLotRepo{s: r.s}, &memMovRepo{s: r.s}); err != nil {
		r.s.restore(lots, movs)
		return err
	}
	return nil
}

// ── builders ──────────────────────────────────────────────────────────────────

const (
	testWarehouse = "W001"
	testStorage   = "SL01"
)

// lotAt crea un lote plano en la bodega de prueba con la antigüedad dada
// (días hacia atrás desde un ancla fija: daysAgo mayor = más antiguo).
func lotAt(part, rack string, qty, daysAgo int) *entity.StockLot {
	anchor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &entity.StockLot{
		ID:              uuid.New().String(),
		WarehouseNo:     testWarehouse,
		StorageLocation: testStorage,
		PartNumber:      part,
		Description:     "parte de prueba " + part,
		UOM:             "EA",
		Quantity:        qty,
		Rack:            rack,
		CreatedAt:       anchor.AddDate(0, 0, -daysAgo),
	}
}

func withIndicator(lot *entity.StockLot, indicator string) *entity.StockLot {
	lot.PartIndicator = indicator
	return lot
}

func testActor() entity.Actor {
	return entity.Actor{UserID: "u-admin", Username: "admin"}
}
