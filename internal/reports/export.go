package reports

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/timeutil"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// writeSheet writes a header row and data rows to the named sheet.
func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func newWorkbook(sheet string) *excelize.File {
	f := excelize.NewFile()
	_ = f.SetSheetName(f.GetSheetName(0), sheet)
	return f
}

func finish(f *excelize.File) ([]byte, error) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// OrdersXLSX exports one row per ticket.
func OrdersXLSX(orders []*models.Order) ([]byte, error) {
	f := newWorkbook("Orders")
	header := []interface{}{"Ticket", "Date", "Customer", "Phone", "Type", "Status", "Payment",
		"Total", "Paid", "Balance", "Refunded", "Items"}
	rows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []interface{}{
			o.TicketID,
			o.CreatedAt.In(timeutil.Shop).Format(timeutil.DateTimeLayout),
			o.Customer.Name,
			o.Customer.Phone,
			string(o.OrderType),
			string(o.Status),
			string(o.PaymentStatus),
			money(o.TotalCost),
			money(o.AmountPaid),
			money(o.Balance),
			money(o.RefundedAmount),
			describeItems(o),
		})
	}
	if err := writeSheet(f, "Orders", header, rows); err != nil {
		f.Close()
		return nil, fmt.Errorf("orders sheet: %w", err)
	}
	return finish(f)
}

func describeItems(o *models.Order) string {
	var b bytes.Buffer
	for i, it := range o.Items {
		if i > 0 {
			b.WriteString("; ")
		}
		switch it.Type {
		case models.ItemTypeRepair:
			b.WriteString(it.Model)
			for _, s := range it.Services {
				fmt.Fprintf(&b, " [%s %s]", s.Service, s.Status)
			}
		case models.ItemTypeProduct:
			fmt.Fprintf(&b, "%s x%d", it.Name, it.Qty)
			if it.Returned {
				b.WriteString(" (returned)")
			}
		case models.ItemTypePartUsage:
			fmt.Fprintf(&b, "part %s", it.Name)
			if it.Voided {
				b.WriteString(" (undone)")
			}
		}
	}
	return b.String()
}

// InventoryXLSX exports the product catalogue.
func InventoryXLSX(products []models.Product) ([]byte, error) {
	f := newWorkbook("Inventory")
	header := []interface{}{"Name", "Type", "Category", "Model", "Color", "Price", "Stock"}
	rows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		rows = append(rows, []interface{}{p.Name, string(p.Type), p.Category, p.Model, p.Color, money(p.Price), p.Stock})
	}
	if err := writeSheet(f, "Inventory", header, rows); err != nil {
		f.Close()
		return nil, fmt.Errorf("inventory sheet: %w", err)
	}
	return finish(f)
}

// PerformanceXLSX exports the summary plus daily and top-seller sheets.
func PerformanceXLSX(p Performance) ([]byte, error) {
	f := newWorkbook("Summary")
	summary := [][]interface{}{
		{"From", fmtDate(p.Range.From)},
		{"To", fmtDate(p.Range.To)},
		{"Orders", p.OrderCount},
		{"Sales value", money(p.SalesValue)},
		{"Service revenue", money(p.ServiceRevenue)},
		{"Product revenue", money(p.ProductRevenue)},
		{"Collected", money(p.Collected)},
		{"Refunded", money(p.Refunded)},
		{"Net revenue", money(p.NetRevenue)},
		{"Outstanding", money(p.Outstanding)},
		{"Units sold", p.UnitsSold},
	}
	if err := writeSheet(f, "Summary", []interface{}{"Metric", "Value"}, summary); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet("Daily"); err != nil {
		f.Close()
		return nil, err
	}
	daily := make([][]interface{}, 0, len(p.Daily))
	for _, d := range p.Daily {
		daily = append(daily, []interface{}{d.Date, d.Orders, money(d.Sales), money(d.Collected)})
	}
	if err := writeSheet(f, "Daily", []interface{}{"Date", "Orders", "Sales", "Collected"}, daily); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet("Top"); err != nil {
		f.Close()
		return nil, err
	}
	var top [][]interface{}
	for _, s := range p.TopServices {
		top = append(top, []interface{}{"service", s.Name, s.Count, money(s.Value)})
	}
	for _, s := range p.TopProducts {
		top = append(top, []interface{}{"product", s.Name, s.Count, money(s.Value)})
	}
	if err := writeSheet(f, "Top", []interface{}{"Kind", "Name", "Count", "Value"}, top); err != nil {
		f.Close()
		return nil, err
	}
	return finish(f)
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(timeutil.Shop).Format(timeutil.DateLayout)
}

// ReadSheet returns the rows of the first sheet of an uploaded workbook.
func ReadSheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return rows, nil
}

// Cell returns a trimmed cell value, or "" when the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// CellInt parses an integer cell, treating blanks as zero.
func CellInt(row []string, idx int) (int, error) {
	v := Cell(row, idx)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// HeaderIndex maps lower-cased header names to their column index.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}
