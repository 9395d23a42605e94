package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pos-inventario-api/internal/application/dto"
)

const productColumns = 7

type productRow struct {
	Line    int
	Request dto.CreateProductRequest
}

// parseProducts lee el CSV (con cabecera) y convierte cada fila en una solicitud de alta.
// Los exportes del sistema anterior vienen en ISO-8859-1.
func parseProducts(r io.Reader, encoding string) ([]productRow, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
	case "latin1", "iso-8859-1", "iso8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = productColumns
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []productRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		req, err := parseProductRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, productRow{Line: line, Request: req})
	}
	return rows, nil
}

func parseProductRecord(rec []string) (dto.CreateProductRequest, error) {
	var req dto.CreateProductRequest
	req.SKU = strings.TrimSpace(rec[0])
	req.Name = strings.TrimSpace(rec[1])
	req.Description = strings.TrimSpace(rec[2])

	var err error
	if req.Price, err = parseMoney(rec[3]); err != nil {
		return req, fmt.Errorf("price: %w", err)
	}
	if req.CostPrice, err = parseMoney(rec[4]); err != nil {
		return req, fmt.Errorf("cost: %w", err)
	}
	if req.MinStock, err = parseQty(rec[5]); err != nil {
		return req, fmt.Errorf("min stock: %w", err)
	}
	if req.InitialStock, err = parseQty(rec[6]); err != nil {
		return req, fmt.Errorf("initial stock: %w", err)
	}
	if req.SKU == "" || req.Name == "" {
		return req, errors.New("sku and name are required")
	}
	return req, nil
}

// parseMoney acepta coma decimal ("1234,50") además de punto.
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseQty(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}
