package core

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// TemplateFilename returns the download name for an entity template.
func TemplateFilename(entity, ext string) string {
	return fmt.Sprintf("%s_template.%s", entity, ext)
}

// GenerateTemplate returns the CSV import template for an entity: the canonical
// header row followed by the entity's sample rows. Output depends only on the
// entity definition.
func GenerateTemplate(entity string) (string, []byte, error) {
	def, ok := Get(entity)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(def.Info.Columns); err != nil {
		return "", nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range sampleRows(def) {
		if err := w.Write(row); err != nil {
			return "", nil, fmt.Errorf("write sample: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("flush template: %w", err)
	}

	return TemplateFilename(entity, "csv"), buf.Bytes(), nil
}

// GenerateTemplateXLSX returns the same template as a single-sheet workbook.
// Required columns get a distinct header colour.
func GenerateTemplateXLSX(entity string) (string, []byte, error) {
	def, ok := Get(entity)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := def.Info.Label
	if sheet == "" {
		sheet = def.Info.Key
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, field := range def.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, field.Name); err != nil {
			return "", nil, fmt.Errorf("write header: %w", err)
		}
		style := headerStyle
		if field.Required {
			style = requiredStyle
		}
		_ = f.SetCellStyle(sheet, cell, cell, style)

		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 20)
	}

	for r, row := range sampleRows(def) {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", nil, fmt.Errorf("write sample: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("write workbook: %w", err)
	}
	return TemplateFilename(entity, "xlsx"), buf.Bytes(), nil
}

// sampleRows lays the entity's samples out in column order.
func sampleRows(def EntityDefinition) [][]string {
	rows := make([][]string, 0, len(def.Info.Samples))
	for _, sample := range def.Info.Samples {
		row := make([]string, len(def.Info.Columns))
		for i, col := range def.Info.Columns {
			row[i] = sample[col]
		}
		rows = append(rows, row)
	}
	return rows
}
