// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package report builds the two Excel exports of POP deployment entries:
// a formatted tabular report, and an enhanced report that embeds the
// photos taken in the field next to each row.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"poptrack/internal/imaging"
	"poptrack/internal/models"
	"poptrack/internal/storage"
)

// ErrNoEntries is returned when the filtered entry set is empty. Callers
// surface it as "no data to export" instead of producing an empty workbook.
var ErrNoEntries = errors.New("no entries to export")

// ContentTypeXLSX is the MIME type for generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "POP Materials Report"

const (
	headerFillColor = "366092"
	altRowFillColor = "F2F2F2"

	// Embedded previews are scaled down to fit this box, never up.
	maxImageWidth  = 200
	maxImageHeight = 150

	// Images anchor at this column (L), one column per image.
	baseImageColumn = 12
	imageColWidth   = 25
)

var enhancedHeaders = []string{
	"Employee Name", "Employee Code", "Branch", "Shop Code", "Model",
	"Display Type", "Selected Materials", "Missing Materials", "Comments",
	"Images Count", "Date", "Image Preview",
}

var simpleHeaders = []string{
	"Employee Name", "Employee Code", "Branch", "Shop Code", "Model",
	"Display Type", "Selected Materials", "Missing Materials", "Comments", "Date",
}

// enhancedColWidths are fixed widths for the enhanced layout; the image
// columns (12 and up) all get imageColWidth.
var enhancedColWidths = map[int]float64{
	1: 22, 2: 16, 3: 28, 4: 14, 5: 30, 6: 22, 7: 38, 8: 38, 9: 25, 10: 14, 11: 20,
}

// Generator builds Excel workbooks from entry lists.
type Generator struct {
	loader *imageLoader

	// delay throttles disk reads between embedded images. Zero means no
	// throttling, which is the default.
	delay time.Duration

	now func() time.Time
}

// NewGenerator returns a Generator reading images from files.
func NewGenerator(files *storage.Local, delay time.Duration) *Generator {
	return &Generator{
		loader: &imageLoader{files: files},
		delay:  delay,
		now:    time.Now,
	}
}

// SimpleFilename returns the suggested attachment filename for a simple
// export.
func (g *Generator) SimpleFilename() string {
	return "pop_materials_simple_" + g.now().Format("20060102_150405") + ".xlsx"
}

// EnhancedFilename returns the suggested attachment filename for an
// enhanced export.
func (g *Generator) EnhancedFilename() string {
	return "pop_materials_report_enhanced_" + g.now().Format("20060102_150405") + ".xlsx"
}

// styleSet holds the style IDs used while writing one workbook.
type styleSet struct {
	header       int
	data         int
	dataAlt      int
	summaryTitle int
	summaryLine  int
}

func newStyles(f *excelize.File) (*styleSet, error) {
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 14, Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Border:    thin,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	data, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 11},
		Border:    thin,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("data style: %w", err)
	}

	dataAlt, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{altRowFillColor}, Pattern: 1},
		Border:    thin,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("alt data style: %w", err)
	}

	summaryTitle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 14, Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("summary title style: %w", err)
	}

	summaryLine, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 11, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("summary line style: %w", err)
	}

	return &styleSet{
		header:       header,
		data:         data,
		dataAlt:      dataAlt,
		summaryTitle: summaryTitle,
		summaryLine:  summaryLine,
	}, nil
}

// newlineJoined renders a comma-joined list field one item per line, with a
// fallback for empty lists.
func newlineJoined(raw, fallback string) string {
	items := models.SplitList(raw)
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, "\n")
}

func lineCount(s string) int {
	if s == "" {
		return 1
	}
	return strings.Count(s, "\n") + 1
}

func longestLine(s string) int {
	max := 0
	for _, line := range strings.Split(s, "\n") {
		if len(line) > max {
			max = len(line)
		}
	}
	return max
}

// BuildSimple writes the formatted tabular report and returns the workbook
// bytes.
func (g *Generator) BuildSimple(entries []models.Entry) (*bytes.Buffer, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeHeaderRow(f, styles, simpleHeaders); err != nil {
		return nil, err
	}

	// Track per-column content extents for width fitting.
	colMax := make([]int, len(simpleHeaders))
	for i, h := range simpleHeaders {
		colMax[i] = len(h)
	}

	for i, e := range entries {
		row := i + 2
		values := []string{
			e.EmployeeName,
			e.EmployeeCode,
			e.Branch,
			e.ShopCode,
			e.ModelLabel,
			e.DisplayType,
			newlineJoined(e.SelectedMaterials, "None"),
			newlineJoined(e.UnselectedMaterials, "None"),
			valueOr(e.Comment, "No comment"),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		maxLines, maxLen := 1, 0
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set cell: %w", err)
			}
			if n := lineCount(v); n > maxLines {
				maxLines = n
			}
			if n := len(v); n > maxLen {
				maxLen = n
			}
			if n := longestLine(v); n > colMax[col] {
				colMax[col] = n
			}
		}

		if err := styleRow(f, styles, row, len(values), i%2 == 1); err != nil {
			return nil, err
		}

		// Grow with line count, with a small bonus for very long content,
		// clamped to a sane band.
		height := 20 + (maxLines-1)*15 + min(10, maxLen/50)
		if err := f.SetRowHeight(sheetName, row, float64(clamp(height, 25, 150))); err != nil {
			return nil, fmt.Errorf("set row height: %w", err)
		}
	}

	// Fit column widths to the longest line seen in each column.
	for col, width := range colMax {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, float64(clamp(width+3, 10, 60))); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	if err := g.writeSummary(f, styles, entries, len(entries)+4, len(simpleHeaders)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// BuildEnhanced writes the image-embedding report. Image failures never
// abort the export; each row's preview cell records how many of its images
// made it in.
func (g *Generator) BuildEnhanced(ctx context.Context, entries []models.Entry) (*bytes.Buffer, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeHeaderRow(f, styles, enhancedHeaders); err != nil {
		return nil, err
	}

	maxImageCols := 0
	for i, e := range entries {
		row := i + 2

		names := filterImageNames(e.Images)
		selected := newlineJoined(e.SelectedMaterials, "None")
		missing := newlineJoined(e.UnselectedMaterials, "None")

		values := []any{
			e.EmployeeName,
			e.EmployeeCode,
			e.Branch,
			e.ShopCode,
			e.ModelLabel,
			e.DisplayType,
			selected,
			missing,
			valueOr(e.Comment, "No comment"),
			len(names),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set cell: %w", err)
			}
		}

		loaded, failed, err := g.embedRowImages(ctx, f, row, names)
		if err != nil {
			return nil, err
		}
		if loaded > maxImageCols {
			maxImageCols = loaded
		}

		previewCell, err := excelize.CoordinatesToCellName(baseImageColumn, row)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, previewCell, previewText(loaded, failed, len(names))); err != nil {
			return nil, fmt.Errorf("set preview: %w", err)
		}

		if err := styleRow(f, styles, row, baseImageColumn, i%2 == 1); err != nil {
			return nil, err
		}

		materialLines := lineCount(selected)
		if n := lineCount(missing); n > materialLines {
			materialLines = n
		}
		height := max(35, materialLines*15+5)
		if loaded > 0 {
			height = max(materialLines*15+10, maxImageHeight+20)
		}
		if err := f.SetRowHeight(sheetName, row, float64(height)); err != nil {
			return nil, fmt.Errorf("set row height: %w", err)
		}
	}

	for col := 1; col <= 11; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, enhancedColWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	imageCols := max(maxImageCols, 1)
	first, _ := excelize.ColumnNumberToName(baseImageColumn)
	last, _ := excelize.ColumnNumberToName(baseImageColumn + imageCols - 1)
	if err := f.SetColWidth(sheetName, first, last, imageColWidth); err != nil {
		return nil, fmt.Errorf("set image column width: %w", err)
	}

	if err := g.writeSummary(f, styles, entries, len(entries)+3, baseImageColumn); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// embedRowImages loads and anchors each of a row's images in its own column
// starting at baseImageColumn. It returns the loaded and failed counts.
func (g *Generator) embedRowImages(ctx context.Context, f *excelize.File, row int, names []string) (loaded, failed int, err error) {
	for idx, name := range names {
		if err := ctx.Err(); err != nil {
			return 0, 0, fmt.Errorf("export canceled: %w", err)
		}
		if idx > 0 && g.delay > 0 {
			select {
			case <-ctx.Done():
				return 0, 0, fmt.Errorf("export canceled: %w", ctx.Err())
			case <-time.After(g.delay):
			}
		}

		img, loadErr := g.loader.load(name)
		if loadErr != nil {
			slog.Warn("export image skipped", "file", name, "row", row, "error", loadErr)
			failed++
			continue
		}

		if err := embedImage(f, baseImageColumn+loaded, row, img); err != nil {
			slog.Warn("export image embed failed", "file", name, "row", row, "error", err)
			failed++
			continue
		}
		loaded++
	}
	return loaded, failed, nil
}

// embedImage anchors one image at (col, row), scaled down to the preview
// box.
func embedImage(f *excelize.File, col, row int, img *loadedImage) error {
	data := img.Data
	width, height := img.Width, img.Height
	ext := "." + img.Format

	// Spreadsheet readers do not render webp; re-encode it as JPEG.
	if img.Format == "webp" {
		converted, err := imaging.Thumbnail(data, maxImageWidth, maxImageHeight)
		if err != nil {
			return fmt.Errorf("convert webp: %w", err)
		}
		data = converted
		width, height = imaging.FitBox(width, height, maxImageWidth, maxImageHeight)
		ext = ".jpg"
	} else if img.Format == "jpeg" {
		ext = ".jpg"
	}

	dispW, dispH := imaging.FitBox(width, height, maxImageWidth, maxImageHeight)

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	return f.AddPictureFromBytes(sheetName, cell, &excelize.Picture{
		Extension: ext,
		File:      data,
		Format: &excelize.GraphicOptions{
			ScaleX:      float64(dispW) / float64(width),
			ScaleY:      float64(dispH) / float64(height),
			OffsetX:     2,
			OffsetY:     2,
			Positioning: "oneCell",
		},
	})
}

// previewText renders the image accounting cell for one row.
func previewText(loaded, failed, attempted int) string {
	switch {
	case attempted == 0:
		return "No images"
	case loaded == 0:
		return fmt.Sprintf("0 of %d images (all failed)", attempted)
	case failed > 0:
		return fmt.Sprintf("%d of %d images loaded (%d failed)", loaded, attempted, failed)
	default:
		return fmt.Sprintf("%d of %d images loaded", loaded, attempted)
	}
}

func writeHeaderRow(f *excelize.File, styles *styleSet, headers []string) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}
	firstCell, _ := excelize.CoordinatesToCellName(1, 1)
	lastCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, firstCell, lastCell, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetRowHeight(sheetName, 1, 30); err != nil {
		return fmt.Errorf("set header height: %w", err)
	}
	return nil
}

func styleRow(f *excelize.File, styles *styleSet, row, cols int, alt bool) error {
	style := styles.data
	if alt {
		style = styles.dataAlt
	}
	firstCell, _ := excelize.CoordinatesToCellName(1, row)
	lastCell, _ := excelize.CoordinatesToCellName(cols, row)
	if err := f.SetCellStyle(sheetName, firstCell, lastCell, style); err != nil {
		return fmt.Errorf("style row %d: %w", row, err)
	}
	return nil
}

// writeSummary appends the totals block below the data rows, each line
// merged across the table width.
func (g *Generator) writeSummary(f *excelize.File, styles *styleSet, entries []models.Entry, startRow, width int) error {
	totalImages := 0
	employees := map[string]bool{}
	branches := map[string]bool{}
	for _, e := range entries {
		totalImages += len(e.ImageList())
		employees[e.EmployeeCode] = true
		branches[e.Branch] = true
	}

	lines := []struct {
		text  string
		style int
	}{
		{"Report Summary", styles.summaryTitle},
		{fmt.Sprintf("Total Entries: %d", len(entries)), styles.summaryLine},
		{fmt.Sprintf("Total Images: %d", totalImages), styles.summaryLine},
		{fmt.Sprintf("Unique Employees: %d", len(employees)), styles.summaryLine},
		{fmt.Sprintf("Unique Branches: %d", len(branches)), styles.summaryLine},
		{"Report Generated: " + g.now().Format("2006-01-02 15:04:05"), styles.summaryLine},
	}

	for i, line := range lines {
		row := startRow + i
		firstCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		lastCell, err := excelize.CoordinatesToCellName(width, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.MergeCell(sheetName, firstCell, lastCell); err != nil {
			return fmt.Errorf("merge summary: %w", err)
		}
		if err := f.SetCellValue(sheetName, firstCell, line.text); err != nil {
			return fmt.Errorf("set summary: %w", err)
		}
		if err := f.SetCellStyle(sheetName, firstCell, lastCell, line.style); err != nil {
			return fmt.Errorf("style summary: %w", err)
		}
	}
	return nil
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
