package movement_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/godam-core/internal/application/movement"
	"github.com/jhoicas/godam-core/internal/domain"
	"github.com/jhoicas/godam-core/internal/domain/entity"
	"github.com/jhoicas/godam-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del ledger de movimientos: registro append-only, estado derivado del
// último registro y el backfill del número de remisión.
// ──────────────────────────────────────────────────────────────────────────────

// fakeMovRepo es un repositorio de movimientos en memoria.
type fakeMovRepo struct {
	movs []*entity.StockMovement
}

func (r *fakeMovRepo) Create(m *entity.StockMovement) error {
	c := *m
	r.movs = append(r.movs, &c)
	return nil
}

func (r *fakeMovRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.movs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMovRepo) ListBySalesOrder(salesOrder string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.movs {
		if m.SalesOrder == salesOrder {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMovRepo) LatestBySalesOrder(salesOrder string) (*entity.StockMovement, error) {
	rows, _ := r.ListBySalesOrder(salesOrder)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (r *fakeMovRepo) ListRecent(limit, offset int) ([]*entity.StockMovement, error) {
	rows := append([]*entity.StockMovement(nil), r.movs...)
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

func (r *fakeMovRepo) SumAbsByWarehousePartAndTypes(warehouseNo, partNumber string, types []entity.MovementType) (int, error) {
	sum := 0
	for _, m := range r.movs {
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

func (r *fakeMovRepo) SumBySalesOrderPartAndType(salesOrder, partNumber string, movementType entity.MovementType) (int, error) {
	sum := 0
	for _, m := range r.movs {
		if m.SalesOrder == salesOrder && m.PartNumber == partNumber && m.Type == movementType {
			sum += m.QtyChange
		}
	}
	return sum, nil
}

func (r *fakeMovRepo) UpdateDeliveryNoteNumber(salesOrder, deliveryNoteNumber string) error {
	for _, m := range r.movs {
		if m.SalesOrder == salesOrder {
			m.DeliveryNoteNumber = deliveryNoteNumber
		}
	}
	return nil
}

func newLedger() (*fakeMovRepo, *movement.Ledger) {
	repo := &fakeMovRepo{}
	return repo, movement.NewLedger(repo, logger.Nop())
}

// ── Append ────────────────────────────────────────────────────────────────────

func TestAppend_PersisteYEstampa(t *testing.T) {
	repo, ledger := newLedger()

	mov, err := ledger.Append(movement.AppendInput{
		Type:        entity.MovementPicked,
		WarehouseNo: "W001",
		PartNumber:  "P",
		QtyChange:   8,
		SalesOrder:  "SO-1",
		CreatedBy:   "u-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, mov.ID)
	assert.False(t, mov.CreatedAt.IsZero())
	require.Len(t, repo.movs, 1)
	assert.Equal(t, "O103", repo.movs[0].Type.Code())
}

func TestAppend_TipoDesconocidoFalla(t *testing.T) {
	_, ledger := newLedger()

	_, err := ledger.Append(movement.AppendInput{
		Type:       entity.MovementUnknown,
		PartNumber: "P",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppend_FueraDeOrdenSePermite(t *testing.T) {
	// El pipeline outbound no impone progresión monotónica: los overrides
	// administrativos registran O105 sin O103 previo.
	_, ledger := newLedger()

	_, err := ledger.Append(movement.AppendInput{
		Type:       entity.MovementConfirmed,
		PartNumber: "P",
		SalesOrder: "SO-1",
		QtyChange:  -5,
	})
	assert.NoError(t, err)
}

// ── estado y consultas ────────────────────────────────────────────────────────

func TestCurrentStatus_EsElUltimoRegistro(t *testing.T) {
	_, ledger := newLedger()

	for _, typ := range []entity.MovementType{
		entity.MovementUploaded, entity.MovementPicked, entity.MovementChecked,
	} {
		_, err := ledger.Append(movement.AppendInput{
			Type: typ, PartNumber: "P", SalesOrder: "SO-1", QtyChange: 1,
		})
		require.NoError(t, err)
	}

	status, err := ledger.CurrentStatus("SO-1")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementChecked, status)
}

func TestCurrentStatus_SinMovimientosFalla(t *testing.T) {
	_, ledger := newLedger()

	_, err := ledger.CurrentStatus("SO-NADA")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParkedQty_SumaMagnitudesDePicksEnVuelo(t *testing.T) {
	_, ledger := newLedger()

	inputs := []movement.AppendInput{
		{Type: entity.MovementPicked, WarehouseNo: "W001", PartNumber: "P", QtyChange: 5, SalesOrder: "SO-1"},
		{Type: entity.MovementChecked, WarehouseNo: "W001", PartNumber: "P", QtyChange: -3, SalesOrder: "SO-2"},
		{Type: entity.MovementConfirmed, WarehouseNo: "W001", PartNumber: "P", QtyChange: -4, SalesOrder: "SO-3"},
		{Type: entity.MovementPicked, WarehouseNo: "W002", PartNumber: "P", QtyChange: 9, SalesOrder: "SO-4"},
	}
	for _, in := range inputs {
		_, err := ledger.Append(in)
		require.NoError(t, err)
	}

	parked, err := ledger.ParkedQty("W001", "P")
	require.NoError(t, err)
	assert.Equal(t, 8, parked,
		"cuentan O103 y O104 en magnitud; O105 y otras bodegas quedan fuera")
}

func TestMovementsBySalesOrder_OrdenCronologico(t *testing.T) {
	_, ledger := newLedger()

	_, err := ledger.Append(movement.AppendInput{Type: entity.MovementUploaded, PartNumber: "P", SalesOrder: "SO-1"})
	require.NoError(t, err)
	_, err = ledger.Append(movement.AppendInput{Type: entity.MovementPicked, PartNumber: "P", SalesOrder: "SO-1"})
	require.NoError(t, err)
	_, err = ledger.Append(movement.AppendInput{Type: entity.MovementPicked, PartNumber: "P", SalesOrder: "SO-2"})
	require.NoError(t, err)

	rows, err := ledger.MovementsBySalesOrder("SO-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.MovementUploaded, rows[0].Type)
	assert.Equal(t, entity.MovementPicked, rows[1].Type)
}

// ── backfill de remisión ──────────────────────────────────────────────────────

func TestBackfillDeliveryNote_ActualizaLosRegistrosDelSalesOrder(t *testing.T) {
	repo, ledger := newLedger()

	_, err := ledger.Append(movement.AppendInput{Type: entity.MovementConfirmed, PartNumber: "P", SalesOrder: "SO-1"})
	require.NoError(t, err)
	_, err = ledger.Append(movement.AppendInput{Type: entity.MovementLoaded, PartNumber: "P", SalesOrder: "SO-1"})
	require.NoError(t, err)
	_, err = ledger.Append(movement.AppendInput{Type: entity.MovementConfirmed, PartNumber: "P", SalesOrder: "SO-2"})
	require.NoError(t, err)

	require.NoError(t, ledger.BackfillDeliveryNote("SO-1", "DN-777"))

	for _, m := range repo.movs {
		if m.SalesOrder == "SO-1" {
			assert.Equal(t, "DN-777", m.DeliveryNoteNumber)
		} else {
			assert.Empty(t, m.DeliveryNoteNumber, "otros sales orders no se tocan")
		}
	}
}

func TestBackfillDeliveryNote_EntradaVaciaFalla(t *testing.T) {
	_, ledger := newLedger()

	assert.ErrorIs(t, ledger.BackfillDeliveryNote("", "DN-1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, ledger.BackfillDeliveryNote("SO-1", ""), domain.ErrInvalidInput)
}

func TestListRecent_PaginaDesdeElMasNuevo(t *testing.T) {
	_, ledger := newLedger()

	for _, so := range []string{"SO-1", "SO-2", "SO-3"} {
		_, err := ledger.Append(movement.AppendInput{Type: entity.MovementUploaded, PartNumber: "P", SalesOrder: so})
		require.NoError(t, err)
	}

	rows, err := ledger.ListRecent(2, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = ledger.ListRecent(2, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
