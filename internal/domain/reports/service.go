package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (MonthlySummary, error) {
	rows, err := s.store.MonthlyRows(ctx, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}

	summary := MonthlySummary{Year: year, Month: int(month), Rows: rows}
	for _, r := range rows {
		summary.TotalPaid += r.PaidHours
		summary.TotalUnpaid += r.UnpaidHours
	}
	return summary, nil
}

// ExportPDF renders the monthly summary as a downloadable PDF.
func (s *Service) ExportPDF(ctx context.Context, year int, month time.Month) ([]byte, error) {
	summary, err := s.Monthly(ctx, year, month)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %04d-%02d", summary.Year, summary.Month))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(25, 8, "ID", "1", 0, "", false, 0, "")
	pdf.CellFormat(60, 8, "Employee", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, "Paid (h)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 8, "Unpaid (h)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(55, 8, "Remaining (cur / carried)", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range summary.Rows {
		pdf.CellFormat(25, 7, r.IDKey, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, r.FullName, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f", r.PaidHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f", r.UnpaidHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(55, 7, fmt.Sprintf("%.1f / %.1f", r.Remaining.CurrentYear, r.Remaining.LastYear), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Total paid: %.1fh    Total unpaid: %.1fh", summary.TotalPaid, summary.TotalUnpaid))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
