package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	counts "ap-monitor/internal/counts/domain"
)

// BuildClientCountsPDF renders a minimal PDF for a count query result.
func BuildClientCountsPDF(building string, rows []counts.BuildingCount, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Wireless Client Counts")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	scope := building
	if scope == "" {
		scope = "all buildings"
	}
	pdf.Cell(0, 6, fmt.Sprintf("Scope: %s", scope))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d", len(rows)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Building", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Clients", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Recorded", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(70, 6, row.Building, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", row.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, row.TimeInserted.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildClientCountsXLSX renders a minimal XLSX for a count query result.
func BuildClientCountsXLSX(building string, rows []counts.BuildingCount, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	countsSheet := "counts"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(countsSheet)

	scope := building
	if scope == "" {
		scope = "all buildings"
	}
	_ = f.SetCellValue(summarySheet, "A1", "Wireless Client Counts")
	_ = f.SetCellValue(summarySheet, "A3", "Scope")
	_ = f.SetCellValue(summarySheet, "B3", scope)
	_ = f.SetCellValue(summarySheet, "A4", "Rows")
	_ = f.SetCellValue(summarySheet, "B4", len(rows))
	_ = f.SetCellValue(summarySheet, "A5", "Generated")
	_ = f.SetCellValue(summarySheet, "B5", generatedAt.Format(time.RFC3339))

	_ = f.SetCellValue(countsSheet, "A1", "Building")
	_ = f.SetCellValue(countsSheet, "B1", "Clients")
	_ = f.SetCellValue(countsSheet, "C1", "Recorded")
	for i, row := range rows {
		line := i + 2
		_ = f.SetCellValue(countsSheet, fmt.Sprintf("A%d", line), row.Building)
		_ = f.SetCellValue(countsSheet, fmt.Sprintf("B%d", line), row.Count)
		_ = f.SetCellValue(countsSheet, fmt.Sprintf("C%d", line), row.TimeInserted.Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
