// Package report renders dashboards as XLSX workbooks.
package report

import (
	"fmt"

	"healthdash/internal/app"
	"healthdash/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	dayLayout    = "2006-01-02"
	weekdaySheet = "Weekdays"
	// excelize always creates this sheet; it is renamed rather than deleted.
	defaultSheet = "Sheet1"
)

// Dashboard writes one sheet of daily values per panel plus a Weekdays sheet
// with every weekday aggregate of the dashboard.
func Dashboard(d *app.Dashboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("Health dashboard %s", d.Today),
		Subject:     fmt.Sprintf("Last %d days", d.Days),
		Creator:     "healthdash",
		Description: fmt.Sprintf("Daily values for the %d days up to %s", d.Days, d.Today),
	})

	for i, p := range d.Panels() {
		sheet := p.Title
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", sheet, err)
		}
		if err := writeDaily(f, sheet, p); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	if _, err := f.NewSheet(weekdaySheet); err != nil {
		return nil, fmt.Errorf("new sheet %s: %w", weekdaySheet, err)
	}
	if err := writeWeekdays(f, d.Panels()); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", weekdaySheet, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDaily(f *excelize.File, sheet string, p *app.Panel) error {
	header := []any{"Date", fmt.Sprintf("%s (%s)", p.Title, p.Unit)}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, s := range p.Samples {
		row := []any{s.Date.Format(dayLayout), s.Value}
		if err := f.SetSheetRow(sheet, cell(1, i+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 16)
}

func writeWeekdays(f *excelize.File, panels []*app.Panel) error {
	header := []any{"Metric", "Aggregate", "Weekday", "Value", "Unit"}
	if err := f.SetSheetRow(weekdaySheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	write := func(p *app.Panel, aggregate string, buckets []domain.WeekdayBucket) error {
		for _, b := range buckets {
			values := []any{p.Title, aggregate, b.Weekday().String(), b.Value, p.Unit}
			if err := f.SetSheetRow(weekdaySheet, cell(1, row), &values); err != nil {
				return err
			}
			row++
		}
		return nil
	}

	for _, p := range panels {
		if err := write(p, "average", p.WeekdayAverages); err != nil {
			return err
		}
		if err := write(p, "daily change", p.WeekdayDiffs); err != nil {
			return err
		}
	}
	return f.SetColWidth(weekdaySheet, "A", "E", 14)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
