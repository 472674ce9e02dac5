package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

func (f Format) Validate() error {
	switch f {
	case FormatJSON, FormatTable, FormatCSV:
		return nil
	default:
		return fmt.Errorf("invalid format: %s: %w", f, eventmodels.ErrValidation)
	}
}

// ParseFormat defaults to json.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatJSON, nil
	}

	if err := f.Validate(); err != nil {
		return "", err
	}

	return f, nil
}

// identifier columns keep their digits as-is
var identifierColumns = map[string]bool{
	"code":       true,
	"id":         true,
	"account_id": true,
	"person_id":  true,
	"broker_id":  true,
	"seqno":      true,
	"ordno":      true,
	"category":   true,
	"date":       true,
	"symbol":     true,
}

// Render reshapes rows, a struct or a slice of structs with csv tags, into the
// requested format.
func Render(format Format, rows interface{}) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return "", fmt.Errorf("Render: failed to marshal json: %w", err)
		}
		return string(data), nil
	case FormatCSV:
		return marshalCSV(rows)
	case FormatTable:
		return renderTable(rows)
	default:
		return "", fmt.Errorf("Render: %w", format.Validate())
	}
}

// asSlice wraps a single struct in a one-element slice so gocsv accepts it.
func asSlice(rows interface{}) interface{} {
	v := reflect.ValueOf(rows)
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		slice := reflect.MakeSlice(reflect.SliceOf(v.Type()), 0, 1)
		return reflect.Append(slice, v).Interface()
	}

	return rows
}

func marshalCSV(rows interface{}) (string, error) {
	text, err := gocsv.MarshalString(asSlice(rows))
	if err != nil {
		return "", fmt.Errorf("Render: failed to marshal csv: %w", err)
	}

	return text, nil
}

// recordCollector is a gocsv.CSVWriter that keeps rows in memory. gocsv reuses
// the row slice between calls, so each row is copied.
type recordCollector struct {
	records [][]string
}

func (c *recordCollector) Write(row []string) error {
	c.records = append(c.records, append([]string(nil), row...))
	return nil
}

func (c *recordCollector) Flush() {}

func (c *recordCollector) Error() error {
	return nil
}

func renderTable(rows interface{}) (string, error) {
	collector := &recordCollector{}
	if err := gocsv.MarshalCSV(asSlice(rows), collector); err != nil {
		return "", fmt.Errorf("Render: failed to marshal rows: %w", err)
	}

	records := collector.records
	if len(records) == 0 {
		return "", nil
	}

	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(display)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(records[0])
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, record := range records[1:] {
		row := make([]string, len(record))
		for i, cell := range record {
			if i < len(records[0]) && identifierColumns[records[0][i]] {
				row[i] = cell
				continue
			}
			row[i] = formatNumber(p, cell)
		}
		table.Append(row)
	}

	table.Render()
	return display.String(), nil
}

// formatNumber adds thousand separators to numeric cells of 1000 or more and
// leaves everything else untouched.
func formatNumber(p *message.Printer, cell string) string {
	if cell == "" || strings.HasPrefix(cell, "0") && len(cell) > 1 && !strings.HasPrefix(cell, "0.") {
		return cell
	}

	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		if n > -1000 && n < 1000 {
			return cell
		}
		return p.Sprintf("%d", n)
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.Abs(f) < 1000 {
		return cell
	}

	decimals := 0
	if dot := strings.IndexByte(cell, '.'); dot >= 0 {
		decimals = len(cell) - dot - 1
	}

	return p.Sprintf(fmt.Sprintf("%%.%df", decimals), f)
}

type TradeRow struct {
	ID             string `json:"id" csv:"id"`
	Seqno          string `json:"seqno" csv:"seqno"`
	Ordno          string `json:"ordno" csv:"ordno"`
	Code           string `json:"code" csv:"code"`
	Action         string `json:"action" csv:"action"`
	Price          string `json:"price" csv:"price"`
	Quantity       int64  `json:"quantity" csv:"quantity"`
	PriceType      string `json:"price_type" csv:"price_type"`
	OrderType      string `json:"order_type" csv:"order_type"`
	OrderLot       string `json:"order_lot" csv:"order_lot"`
	Status         string `json:"status" csv:"status"`
	DealQuantity   int64  `json:"deal_quantity" csv:"deal_quantity"`
	CancelQuantity int64  `json:"cancel_quantity" csv:"cancel_quantity"`
	Msg            string `json:"msg" csv:"msg"`
	OrderDatetime  string `json:"order_datetime" csv:"order_datetime"`
}

// TradeRows flattens trades for table and csv output.
func TradeRows(trades []*eventmodels.Trade) []TradeRow {
	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		if t == nil {
			continue
		}

		orderDatetime := ""
		if !t.Status.OrderDatetime.IsZero() {
			orderDatetime = t.Status.OrderDatetime.Format("2006-01-02 15:04:05")
		}

		rows = append(rows, TradeRow{
			ID:             t.Order.ID,
			Seqno:          t.Order.Seqno,
			Ordno:          t.Order.Ordno,
			Code:           string(t.Contract.Code),
			Action:         string(t.Order.Action),
			Price:          t.Order.Price.String(),
			Quantity:       t.Order.Quantity,
			PriceType:      string(t.Order.PriceType),
			OrderType:      string(t.Order.OrderType),
			OrderLot:       string(t.Order.OrderLot),
			Status:         string(t.Status.Status),
			DealQuantity:   t.Status.DealQuantity,
			CancelQuantity: t.Status.CancelQuantity,
			Msg:            t.Status.Msg,
			OrderDatetime:  orderDatetime,
		})
	}

	return rows
}
