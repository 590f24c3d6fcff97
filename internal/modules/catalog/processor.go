package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MaxCatalogRows caps how many data rows a single upload may yield.
const MaxCatalogRows = 500

var ErrMissingNameColumn = errors.New("catalog has no product name column")

// Processor turns a stored catalog file into unsaved products.
type Processor interface {
	Parse(ctx context.Context, path string) ([]*Product, error)
}

const (
	confidenceHigh = "high"
	confidenceLow  = "low"
)

// headerAliases maps normalised header text to product field keys.
var headerAliases = map[string]string{
	"product name":      "product_name",
	"product":           "product_name",
	"name":              "product_name",
	"item":              "product_name",
	"description":       "product_name",
	"hcpcs":             "hcpcs_code",
	"hcpcs code":        "hcpcs_code",
	"category":          "category",
	"product category":  "category",
	"price":             "retail_price",
	"retail price":      "retail_price",
	"msrp":              "retail_price",
	"sku":               "sku",
	"item number":       "sku",
	"part number":       "sku",
	"manufacturer":      "manufacturer",
	"mfr":               "manufacturer",
	"brand":             "manufacturer",
	"size":              "variant_size",
	"variant":           "variant_size",
	"variant size":      "variant_size",
	"fulfillment":       "fulfillment_types",
	"fulfillment types": "fulfillment_types",
	"fulfillment type":  "fulfillment_types",
}

var productFields = []string{
	"product_name", "hcpcs_code", "category", "retail_price",
	"variant_size", "fulfillment_types", "sku", "manufacturer",
}

// SpreadsheetProcessor reads the first sheet of an Excel workbook, or a CSV file, treating row one as headers.
type SpreadsheetProcessor struct{}

func NewSpreadsheetProcessor() *SpreadsheetProcessor { return &SpreadsheetProcessor{} }

func (SpreadsheetProcessor) Parse(ctx context.Context, path string) ([]*Product, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(ctx, rows)
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyCatalog
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func parseRows(ctx context.Context, rows [][]string) ([]*Product, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyCatalog
	}

	columns := map[string]int{}
	for i, h := range rows[0] {
		if field, ok := headerAliases[normaliseHeader(h)]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["product_name"]; !ok {
		return nil, ErrMissingNameColumn
	}

	data := rows[1:]
	if len(data) > MaxCatalogRows {
		data = data[:MaxCatalogRows]
	}

	var products []*Product
	for _, row := range data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := func(field string) string {
			i, ok := columns[field]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := cell("product_name")
		if name == "" {
			continue
		}
		p := &Product{
			ProductName:  name,
			HCPCSCode:    strings.ToUpper(cell("hcpcs_code")),
			Category:     cell("category"),
			SKU:          cell("sku"),
			Manufacturer: cell("manufacturer"),
			VariantSize:  cell("variant_size"),
			AIConfidence: Confidence{},
		}
		if price, ok := parsePrice(cell("retail_price")); ok {
			p.RetailPrice = &price
		}
		p.FulfillmentTypes = parseFulfillment(cell("fulfillment_types"))

		for _, field := range productFields {
			p.AIConfidence[field] = confidenceLow
			if cell(field) != "" {
				p.AIConfidence[field] = confidenceHigh
			}
		}
		if p.RetailPrice == nil {
			p.AIConfidence["retail_price"] = confidenceLow
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	return products, nil
}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func parsePrice(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func parseFulfillment(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		ft := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(part)), " ", "_")
		if FulfillmentType(ft).Valid() {
			out = append(out, ft)
		}
	}
	return out
}
