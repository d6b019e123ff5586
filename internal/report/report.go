// Package report persists analysis results as JSON and Excel files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"docanalyzer/internal/logger"
	"docanalyzer/pkg/models"
)

const (
	jsonFilename  = "analysis.json"
	excelFilename = "analysis.xlsx"

	summarySheet = "Resumen"
	answersSheet = "Respuestas"
)

// WriteJSON stores the complete analysis as pretty-printed JSON under
// <dir>/<processID>/ and returns the file path.
func WriteJSON(dir string, analysis *models.Analysis) (string, error) {
	outDir := filepath.Join(dir, analysis.ProcessID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding analysis: %w", err)
	}

	path := filepath.Join(outDir, jsonFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	log := logger.WithProcessID(analysis.ProcessID)
	log.Info().Str("path", path).Msg("JSON report written")
	return path, nil
}

// WriteExcel renders the analysis as a two-sheet workbook: a run summary
// and one row per question with its answer and cost.
func WriteExcel(dir string, analysis *models.Analysis) (string, error) {
	outDir := filepath.Join(dir, analysis.ProcessID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("creating header style: %w", err)
	}

	if err := writeSummarySheet(f, analysis, headerStyle); err != nil {
		return "", err
	}
	if err := writeAnswersSheet(f, analysis, headerStyle); err != nil {
		return "", err
	}
	f.DeleteSheet("Sheet1")

	path := filepath.Join(outDir, excelFilename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	log := logger.WithProcessID(analysis.ProcessID)
	log.Info().Str("path", path).Msg("Excel report written")
	return path, nil
}

func writeSummarySheet(f *excelize.File, analysis *models.Analysis, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", summarySheet, err)
	}

	rows := [][]interface{}{
		{"CAMPO", "VALOR"},
		{"ID de proceso", analysis.ProcessID},
		{"Inicio", analysis.StartedAt.Format("2006-01-02 15:04:05")},
		{"Fin", analysis.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Archivos recibidos", analysis.Summary.FilesReceived},
		{"Archivos procesados", analysis.Summary.FilesProcessed},
		{"Caracteres extraídos", analysis.Summary.CharsExtracted},
		{"Fragmentos analizados", analysis.Fragments},
		{"Preguntas", analysis.Summary.Questions},
		{"Respuestas encontradas", analysis.Summary.AnswersFound},
		{"Tokens totales", analysis.Costs.TotalTokens},
		{"Costo total (USD)", analysis.Costs.TotalCostUSD},
		{"Modelo", analysis.Costs.Model},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "B", 30)
}

func writeAnswersSheet(f *excelize.File, analysis *models.Analysis, headerStyle int) error {
	if _, err := f.NewSheet(answersSheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", answersSheet, err)
	}

	header := []interface{}{"PREGUNTA", "RESPUESTA", "INFO ENCONTRADA", "TOKENS", "COSTO (USD)"}
	if err := f.SetSheetRow(answersSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(answersSheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for i, record := range analysis.Answers {
		found := "NO"
		if record.Found {
			found = "SÍ"
		}
		row := []interface{}{
			record.Question.Text,
			record.Answer,
			found,
			record.TokensUsed,
			record.CostUSD,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(answersSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(answersSheet, "A", "B", 60); err != nil {
		return err
	}
	return f.SetColWidth(answersSheet, "C", "E", 15)
}
