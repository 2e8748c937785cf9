// Package export renders the schedule collection into downloadable formats.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/klandestin-s/school-man3/internal/core"
)

// SheetName is the worksheet holding the schedule.
const SheetName = "Jadwal"

// Headers are the column titles of the exported sheet, in order.
var Headers = []string{"ID", "Kelas", "Hari", "Mata Pelajaran", "Guru", "Jam Mulai", "Jam Selesai"}

// WriteXLSX writes records as an xlsx workbook to w. Rows are ordered by
// day of week, then class, then start time; records is left untouched.
func WriteXLSX(w io.Writer, records []core.Record) error {
	rows := Sorted(records)

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("export: header %s: %w", cell, err)
		}
	}
	for i, r := range rows {
		values := []string{r.ID, r.Class, r.Day, r.Subject, r.Teacher, r.StartTime, r.EndTime}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("export: freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// Sorted returns a copy of records ordered for display.
func Sorted(records []core.Record) []core.Record {
	out := append([]core.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := core.DayIndex(out[i].Day), core.DayIndex(out[j].Day)
		if di != dj {
			return di < dj
		}
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
