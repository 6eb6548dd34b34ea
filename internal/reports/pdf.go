package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/timeutil"
)

// ShopInfo is printed in document headers.
type ShopInfo struct {
	Name     string
	Address  string
	Phone    string
	Currency string
}

func (s ShopInfo) amount(d decimal.Decimal) string {
	if s.Currency == "" {
		return d.StringFixed(2)
	}
	return s.Currency + " " + d.StringFixed(2)
}

func header(pdf *gofpdf.Fpdf, shop ShopInfo, title string) {
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 9, shop.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if shop.Address != "" {
		pdf.CellFormat(190, 5, shop.Address, "", 1, "C", false, 0, "")
	}
	if shop.Phone != "" {
		pdf.CellFormat(190, 5, "Tel: "+shop.Phone, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 8, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReceiptPDF renders a printable customer receipt for a ticket.
func ReceiptPDF(o *models.Order, shop ShopInfo) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	header(pdf, shop, "Receipt")

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, "Ticket: "+o.TicketID, "LT", 0, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Date: "+o.CreatedAt.In(timeutil.Shop).Format(timeutil.DisplayLayout), "RT", 1, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Customer: "+o.Customer.Name, "LB", 0, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Phone: "+o.Customer.Phone, "RB", 1, "L", true, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(100, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	row := func(desc string, qty string, price, amount decimal.Decimal) {
		if len(desc) > 55 {
			desc = desc[:52] + "..."
		}
		pdf.CellFormat(100, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, qty, "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, price.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	for _, it := range o.Items {
		switch it.Type {
		case models.ItemTypeRepair:
			for _, s := range it.Services {
				desc := fmt.Sprintf("%s - %s", it.Model, s.Service)
				cost := s.Cost
				if s.Status == models.ServiceStatusVoid {
					desc += " (void)"
					cost = decimal.Zero
				}
				row(desc, "1", s.Cost, cost)
			}
		case models.ItemTypeProduct:
			desc := it.Name
			amount := it.Total
			if it.Returned {
				desc += " (returned)"
				amount = decimal.Zero
			}
			row(desc, fmt.Sprintf("%d", it.Qty), it.Price, amount)
		}
	}
	pdf.Ln(3)

	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Total", o.TotalCost},
		{"Paid", o.AmountPaid},
		{"Refunded", o.RefundedAmount},
		{"Balance", o.Balance},
	}
	for _, t := range totals {
		if t.label == "Refunded" && t.value.IsZero() {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(155, 6, t.label, "", 0, "R", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(35, 6, shop.amount(t.value), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(190, 6, fmt.Sprintf("Status: %s  |  Payment: %s", o.Status, o.PaymentStatus), "", 1, "L", false, 0, "")

	return output(pdf)
}

// PayslipPDF renders a technician's weekly payslip.
func PayslipPDF(st models.PayrollStatement, shop ShopInfo) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	header(pdf, shop, "Payslip")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, "Technician: "+st.TechnicianName, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Week: %s to %s",
		st.WeekStart.In(timeutil.Shop).Format(timeutil.DateLayout),
		st.WeekEnd.AddDate(0, 0, -1).In(timeutil.Shop).Format(timeutil.DateLayout)), "", 1, "R", false, 0, "")
	status := "UNPAID"
	if st.Status == models.PayrollStatusPaid && st.PaidAt != nil {
		status = "PAID " + st.PaidAt.In(timeutil.Shop).Format(timeutil.DisplayLayout)
	}
	pdf.CellFormat(190, 7, "Status: "+status, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(35, 7, "Ticket", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Device", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 7, "Service", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Completed", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, j := range st.Jobs {
		pdf.CellFormat(35, 6, j.TicketID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, j.Model, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, j.Service, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, j.CompletedAt.In(timeutil.Shop).Format(timeutil.DateTimeLayout), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	if len(st.Adjustments) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 7, "Adjustments", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, a := range st.Adjustments {
			pdf.CellFormat(155, 6, a.Reason, "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, a.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}

	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Base salary", st.BaseSalary},
		{fmt.Sprintf("Jobs (%d x %s)", st.JobCount, st.FixedPerJob.StringFixed(2)), st.JobsTotal},
		{"Adjustments", st.AdjustmentsTotal},
		{"Total payout", st.Total},
	}
	for i, l := range lines {
		style := ""
		if i == len(lines)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(155, 7, l.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, shop.amount(l.value), "", 1, "R", false, 0, "")
	}
	return output(pdf)
}
