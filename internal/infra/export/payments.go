package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/gym-console/internal/domain/payments"
)

const paymentsSheet = "Payments"

// Payments writes the rows as a single-sheet xlsx workbook.
func Payments(w io.Writer, rows []payments.ExportRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), paymentsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"Payment ID", "Member ID", "Member", "Amount", "Plan", "Method", "Date"}
	if err := f.SetSheetRow(paymentsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, r := range rows {
		line := []interface{}{
			r.PaymentID,
			r.MemberID,
			r.MemberName,
			r.Amount,
			r.Plan,
			string(r.Method),
			r.Date.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(paymentsSheet, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}
	_ = f.SetColWidth(paymentsSheet, "C", "C", 28)
	_ = f.SetColWidth(paymentsSheet, "G", "G", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// PaymentsFileName names the download, e.g. payments_20240301_101500.xlsx.
func PaymentsFileName(now time.Time) string {
	return fmt.Sprintf("payments_%s.xlsx", now.Format("20060102_150405"))
}
