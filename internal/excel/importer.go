package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath            string // Path to the Excel or CSV file
	QuestionnaireColumn string // Column with the questionnaire number
	CategoryColumn      string // Column with the category
	AstagColumn         string // Column with the secondary tag
	PromptColumn        string // Column with the question text
	OptionAColumn       string
	OptionBColumn       string
	OptionCColumn       string
	OptionDColumn       string
	CorrectColumn       string // Column with the correct letter
	ImageColumn         string // Column with the image URL or path
	SheetName           string // Name of the sheet to import, first sheet when empty
	StartRow            int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		QuestionnaireColumn: "A",
		CategoryColumn:      "B",
		AstagColumn:         "C",
		PromptColumn:        "D",
		OptionAColumn:       "E",
		OptionBColumn:       "F",
		OptionCColumn:       "G",
		OptionDColumn:       "H",
		CorrectColumn:       "I",
		ImageColumn:         "J",
		StartRow:            2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// QuestionStore persists imported questions
type QuestionStore interface {
	FindByPrompt(ctx context.Context, questionnaire int, prompt string) (*models.Question, error)
	Create(ctx context.Context, q *models.Question) error
	Update(ctx context.Context, q *models.Question) error
}

// Importer loads question banks from spreadsheets
type Importer struct {
	store QuestionStore
	log   *logrus.Entry
}

// NewImporter creates an importer writing to store
func NewImporter(store QuestionStore, log *logrus.Entry) *Importer {
	return &Importer{store: store, log: log}
}

// ImportQuestions imports questions from an Excel or CSV file.
// A question is identified by its questionnaire and prompt; a known
// question is updated in place so its attempts stay attached.
func (im *Importer) ImportQuestions(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result, err := im.importRows(ctx, rows, config)
	if err != nil {
		return nil, err
	}
	im.log.WithFields(logrus.Fields{
		"file":    filepath.Base(config.FilePath),
		"rows":    result.TotalProcessed,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
	}).Info("question import finished")
	return result, nil
}

// readExcel returns the rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns the records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return records, nil
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, config ImportConfig) (*ImportResult, error) {
	cols, err := resolveColumns(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		q, err := parseRow(row, cols)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if err := im.save(ctx, &q, result); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return result, nil
}

// save creates q or updates the stored question with the same prompt
func (im *Importer) save(ctx context.Context, q *models.Question, result *ImportResult) error {
	existing, err := im.store.FindByPrompt(ctx, q.Questionnaire, q.Prompt)
	if errors.Is(err, database.ErrNotFound) {
		if err := im.store.Create(ctx, q); err != nil {
			return err
		}
		result.Created++
		return nil
	}
	if err != nil {
		return err
	}

	q.ID = existing.ID
	q.CreatedAt = existing.CreatedAt
	if sameContent(*existing, *q) {
		result.Skipped++
		return nil
	}
	if err := im.store.Update(ctx, q); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// columns holds zero-based column indexes
type columns struct {
	questionnaire, category, astag, prompt int
	options                                [4]int
	correct, image                         int
}

func resolveColumns(config ImportConfig) (columns, error) {
	var c columns
	targets := []struct {
		name string
		dst  *int
	}{
		{config.QuestionnaireColumn, &c.questionnaire},
		{config.CategoryColumn, &c.category},
		{config.AstagColumn, &c.astag},
		{config.PromptColumn, &c.prompt},
		{config.OptionAColumn, &c.options[0]},
		{config.OptionBColumn, &c.options[1]},
		{config.OptionCColumn, &c.options[2]},
		{config.OptionDColumn, &c.options[3]},
		{config.CorrectColumn, &c.correct},
		{config.ImageColumn, &c.image},
	}
	for _, t := range targets {
		n, err := excelize.ColumnNameToNumber(t.name)
		if err != nil {
			return c, fmt.Errorf("invalid column %q: %w", t.name, err)
		}
		*t.dst = n - 1
	}
	return c, nil
}

// parseRow converts a spreadsheet row into a question
func parseRow(row []string, cols columns) (models.Question, error) {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	optional := func(idx int) *string {
		if v := cell(idx); v != "" {
			return &v
		}
		return nil
	}

	q := models.Question{
		Questionnaire: 1,
		Category:      optional(cols.category),
		Astag:         optional(cols.astag),
		Prompt:        cell(cols.prompt),
		OptionA:       cell(cols.options[0]),
		OptionB:       cell(cols.options[1]),
		OptionC:       cell(cols.options[2]),
		OptionD:       optional(cols.options[3]),
		Correct:       strings.ToUpper(cell(cols.correct)),
		Image:         cell(cols.image),
	}

	if raw := cell(cols.questionnaire); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, fmt.Errorf("invalid questionnaire %q", raw)
		}
		q.Questionnaire = n
	}
	if q.Prompt == "" {
		return q, errors.New("question text is empty")
	}
	if len(q.Options()) < 3 {
		return q, errors.New("at least three options are required")
	}
	if !q.Valid() {
		return q, fmt.Errorf("correct answer %q is not one of the options", q.Correct)
	}
	return q, nil
}

func sameContent(a, b models.Question) bool {
	return a.Questionnaire == b.Questionnaire &&
		equalPtr(a.Category, b.Category) &&
		equalPtr(a.Astag, b.Astag) &&
		a.Prompt == b.Prompt &&
		a.OptionA == b.OptionA &&
		a.OptionB == b.OptionB &&
		a.OptionC == b.OptionC &&
		equalPtr(a.OptionD, b.OptionD) &&
		a.Correct == b.Correct &&
		a.Image == b.Image
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
