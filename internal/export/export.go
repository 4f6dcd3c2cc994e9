package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yegors/cctv-repairs/internal/store"
)

// Display column names, matching the original journal layout
var displayHeaders = []string{
	"지역",      // region
	"현장명",     // site name
	"년도",      // repair year
	"월",       // repair month
	"고장수리내역",  // repair detail
	"카메라종류",   // camera type
	"점검자",     // inspector
	"등록일시",    // created at
}

// utf8BOM makes the CSV open correctly in spreadsheet applications that
// otherwise guess a legacy encoding for Korean text
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const createdAtLayout = "2006-01-02 15:04:05"

// Filename returns a timestamped export filename, e.g.
// 수리내역_20240131_093045.csv
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), ext)
}

// WriteCSV writes the records as a UTF-8 CSV with a byte-order mark and
// display column names
func WriteCSV(w io.Writer, records []store.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(displayHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Region,
			r.SiteName,
			strconv.Itoa(r.RepairYear),
			strconv.Itoa(r.RepairMonth),
			r.RepairDetail,
			r.CameraType,
			r.Inspector,
			r.CreatedAt.Format(createdAtLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the records as an XLSX workbook with the same display
// column names
func WriteXLSX(w io.Writer, records []store.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	for i, h := range displayHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to name header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for rowIdx, r := range records {
		values := []any{
			r.Region,
			r.SiteName,
			r.RepairYear,
			r.RepairMonth,
			r.RepairDetail,
			r.CameraType,
			r.Inspector,
			r.CreatedAt.Format(createdAtLayout),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to name cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
