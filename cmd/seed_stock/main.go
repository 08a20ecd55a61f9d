// seed_stock carga un CSV de inventario en la tabla stock_lots vía el caso
// de uso de recepción (upsert por clave natural bodega+ubicación+parte+rack+drum).
//
// Uso: go run ./cmd/seed_stock [ruta/stock.csv]
// Por defecto busca stock.csv en el directorio actual. Los exports de los
// sistemas de bodega suelen venir en ISO-8859-1; el lector lo tolera.
//
// Columnas esperadas (con cabecera):
//
//	warehouse_no,storage_location,part_number,sap_pn,parent_pn,pn_indicator,
//	description,uom,base_qty,qty,rack,bin,combine_rack,drum_no,drum_qty,
//	vendor_name,category,sub_category,received_at
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/godam-core/internal/application/stock"
	"github.com/jhoicas/godam-core/internal/infrastructure/postgres"
	"github.com/jhoicas/godam-core/pkg/config"
	"github.com/jhoicas/godam-core/pkg/logger"
)

func main() {
	csvPath := "stock.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	items, err := readItems(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", csvPath).Msg("leer CSV de stock")
	}
	if len(items) == 0 {
		log.Fatal().Str("file", csvPath).Msg("CSV sin filas de datos")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conectar a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	lots := postgres.NewStockLotRepository(pool)
	uc := stock.NewReceiveUseCase(txRunner, lots, log)

	result, err := uc.Receive(ctx, items)
	if err != nil {
		log.Fatal().Err(err).Msg("aplicar recepción")
	}

	log.Info().
		Int("total", result.Total).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Msg("carga de stock completada")
}

// readItems parsea el CSV tolerando ISO-8859-1. Si el contenido no es UTF-8
// válido se reprocesa con el decoder Latin-1, que nunca falla.
func readItems(path string) ([]stock.ReceiptItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("abrir CSV: %w", err)
	}
	var reader io.Reader = strings.NewReader(string(raw))
	if !utf8.Valid(raw) {
		reader = transform.NewReader(strings.NewReader(string(raw)), charmap.ISO8859_1.NewDecoder())
	}

	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"warehouse_no", "storage_location", "part_number", "qty"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("cabecera sin columna obligatoria %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []stock.ReceiptItem
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("fila %d: %w", line, err)
		}

		qty, err := parseInt(field(row, "qty"))
		if err != nil {
			return nil, fmt.Errorf("fila %d: qty: %w", line, err)
		}
		drumNo, err := parseInt(field(row, "drum_no"))
		if err != nil {
			return nil, fmt.Errorf("fila %d: drum_no: %w", line, err)
		}
		baseQty, err := parseDecimal(field(row, "base_qty"))
		if err != nil {
			return nil, fmt.Errorf("fila %d: base_qty: %w", line, err)
		}
		drumQty, err := parseDecimal(field(row, "drum_qty"))
		if err != nil {
			return nil, fmt.Errorf("fila %d: drum_qty: %w", line, err)
		}

		items = append(items, stock.ReceiptItem{
			WarehouseNo:       field(row, "warehouse_no"),
			StorageLocation:   field(row, "storage_location"),
			PartNumber:        field(row, "part_number"),
			SecondaryPartCode: field(row, "sap_pn"),
			ParentPartNumber:  field(row, "parent_pn"),
			PartIndicator:     strings.ToUpper(field(row, "pn_indicator")),
			Description:       field(row, "description"),
			UOM:               field(row, "uom"),
			BaseQty:           baseQty,
			Qty:               qty,
			Rack:              field(row, "rack"),
			Bin:               field(row, "bin"),
			CombinedRackLabel: field(row, "combine_rack"),
			DrumNumber:        drumNo,
			DrumQty:           drumQty,
			VendorName:        field(row, "vendor_name"),
			Category:          field(row, "category"),
			SubCategory:       field(row, "sub_category"),
			ReceivedAt:        field(row, "received_at"),
		})
	}
	return items, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	// Los exports regionales usan coma decimal.
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
