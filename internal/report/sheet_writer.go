// Package report renders project listings into spreadsheets
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet layout of the projects export
const (
	SheetName = "Projetos"

	headerRow    = 1
	dataRowStart = 2
)

// Columns of the projects export, in order
var Columns = []string{
	"ID",
	"Título",
	"Professor Responsável",
	"Departamento",
	"Ano",
	"Semestre",
	"Status",
	"Bolsas Solicitadas",
	"Bolsas Disponibilizadas",
	"Voluntários Solicitados",
}

// ProjectRow is one line of the projects export
type ProjectRow struct {
	ID                     int64
	Title                  string
	Professor              string
	DepartmentID           int64
	Year                   int
	Semester               string
	Status                 string
	BolsasSolicitadas      int
	BolsasDisponibilizadas int
	VoluntariosSolicitados int
}

func (r ProjectRow) values() []interface{} {
	return []interface{}{
		r.ID,
		r.Title,
		r.Professor,
		r.DepartmentID,
		r.Year,
		r.Semester,
		r.Status,
		r.BolsasSolicitadas,
		r.BolsasDisponibilizadas,
		r.VoluntariosSolicitados,
	}
}

// SheetWriter writes project rows into an xlsx workbook
type SheetWriter struct {
	logger *zap.Logger
}

// NewSheetWriter creates a new SheetWriter
func NewSheetWriter(logger *zap.Logger) *SheetWriter {
	return &SheetWriter{logger: logger}
}

// WriteProjects returns an xlsx workbook with a header and one row per project
func (w *SheetWriter) WriteProjects(rows []ProjectRow) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := w.writeHeader(file); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, dataRowStart+i)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i, err)
		}
		values := row.values()
		if err := file.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write project %d: %w", row.ID, err)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Project sheet written",
		zap.Int("rows", len(rows)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func (w *SheetWriter) writeHeader(file *excelize.File) error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}

	start, _ := excelize.CoordinatesToCellName(1, headerRow)
	end, _ := excelize.CoordinatesToCellName(len(Columns), headerRow)

	if err := file.SetSheetRow(SheetName, start, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := file.SetCellStyle(SheetName, start, end, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if err := file.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		w.logger.Warn("Failed to freeze header row", zap.Error(err))
	}

	return nil
}
