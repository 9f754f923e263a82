// Package export renders an analysis run as the summary workbook that is
// handed back to the user.
package export

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/team-sakkal/caoscan/internal/aggregate"
	"github.com/team-sakkal/caoscan/internal/model"
)

const (
	sheetName = "Samenvatting"

	// DownloadName is the attachment filename for rendered workbooks.
	DownloadName = "cao_samenvatting.xlsx"
	// ContentType is the XLSX MIME type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// categoryColors maps each increase category to its RGB display color.
var categoryColors = map[model.Category]string{
	model.CategoryStandaard:   "000000",
	model.CategoryVerlofdagen: "FFC000",
	model.CategoryDienstjaren: "0070C0",
	model.CategoryWML:         "00B050",
	model.CategoryAnders:      "7030A0",
}

// legendEntries is the LEGENDA block, in its fixed display order.
var legendEntries = []struct {
	category    model.Category
	description string
}{
	{model.CategoryStandaard, "Standaard loonsverhoging."},
	{model.CategoryWML, "Gekoppeld aan WML."},
	{model.CategoryVerlofdagen, "Omzetting van verlofdagen."},
	{model.CategoryDienstjaren, "O.b.v. dienstjaren."},
	{model.CategoryAnders, "Andere specifieke verhoging."},
}

// Renderer writes analysis runs as XLSX workbooks: one row per document,
// a pair of columns per effective date, percentages colored by category.
type Renderer struct {
	logger zerolog.Logger
}

func NewRenderer(logger zerolog.Logger) *Renderer {
	return &Renderer{logger: logger.With().Str("component", "export").Logger()}
}

// Render produces the workbook bytes for a run.
func (r *Renderer) Render(run *model.AnalysisRun) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	maxDates, hasFailure := 0, false
	for _, id := range run.IDs() {
		res, _ := run.Get(id)
		if res.Failed() {
			hasFailure = true
		}
		if len(res.Groups) > maxDates {
			maxDates = len(res.Groups)
		}
	}

	headers := []string{"Bestandsnaam"}
	for i := 1; i <= maxDates; i++ {
		headers = append(headers, fmt.Sprintf("%de datum", i), fmt.Sprintf("%de percentages", i))
	}
	remarkCol := 0
	if hasFailure {
		headers = append(headers, "Opmerking")
		remarkCol = len(headers)
	}

	// Track the widest content per column so widths can be sized after
	// all rows are written.
	widths := make([]int, len(headers)+1)
	note := func(col int, text string) {
		if col < len(widths) && len(text) > widths[col] {
			widths[col] = len(text)
		}
	}
	setCell := func(col, row int, value string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		note(col, value)
		return f.SetCellValue(sheetName, cell, value)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		if err := setCell(i+1, 1, h); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheetName, first, last, bold); err != nil {
			return nil, fmt.Errorf("header style: %w", err)
		}
	}

	for rowIdx, id := range run.IDs() {
		row := rowIdx + 2
		res, _ := run.Get(id)
		if err := setCell(1, row, id); err != nil {
			return nil, err
		}
		if res.Failed() {
			if err := setCell(remarkCol, row, res.Failure.Message()); err != nil {
				return nil, err
			}
			continue
		}
		for i, g := range res.Groups {
			dateCol, pctCol := 2+2*i, 3+2*i
			if err := setCell(dateCol, row, g.Date); err != nil {
				return nil, err
			}
			cell, err := excelize.CoordinatesToCellName(pctCol, row)
			if err != nil {
				return nil, err
			}
			note(pctCol, plainPercentages(g.Increases))
			if err := f.SetCellRichText(sheetName, cell, richPercentages(g.Increases)); err != nil {
				return nil, fmt.Errorf("rich text %s: %w", cell, err)
			}
		}
	}

	if err := r.writeLegend(f, len(headers)+2); err != nil {
		return nil, err
	}

	for col := 1; col <= len(headers); col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, float64(widths[col]+4)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	r.logger.Info().
		Int("documents", run.Len()).
		Int("date_columns", maxDates).
		Int("bytes", buf.Len()).
		Msg("workbook rendered")
	return buf.Bytes(), nil
}

func (r *Renderer) writeLegend(f *excelize.File, col int) error {
	head, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, head, "LEGENDA"); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, head, head, bold); err != nil {
		return err
	}

	width := 0
	for i, entry := range legendEntries {
		cell, err := excelize.CoordinatesToCellName(col, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, entry.description); err != nil {
			return err
		}
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: colorFor(entry.category)}})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
		if len(entry.description) > width {
			width = len(entry.description)
		}
	}

	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheetName, name, name, float64(width+4))
}

// richPercentages renders one date group as colored runs joined by " / ".
func richPercentages(increases []model.Increase) []excelize.RichTextRun {
	runs := make([]excelize.RichTextRun, 0, 2*len(increases))
	for i, inc := range increases {
		if i > 0 {
			runs = append(runs, excelize.RichTextRun{
				Text: " / ",
				Font: &excelize.Font{Color: categoryColors[model.CategoryStandaard]},
			})
		}
		runs = append(runs, excelize.RichTextRun{
			Text: aggregate.FormatPercentage(inc.Percentage),
			Font: &excelize.Font{Color: colorFor(inc.Category)},
		})
	}
	return runs
}

func plainPercentages(increases []model.Increase) string {
	parts := make([]string, len(increases))
	for i, inc := range increases {
		parts[i] = aggregate.FormatPercentage(inc.Percentage)
	}
	return strings.Join(parts, " / ")
}

func colorFor(c model.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[model.CategoryStandaard]
}
