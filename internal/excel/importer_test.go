package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/internal/logger"
	"github.com/example/codequiz/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memStore struct {
	questions []models.Question
	updates   int
}

func (m *memStore) FindByPrompt(_ context.Context, questionnaire int, prompt string) (*models.Question, error) {
	for _, q := range m.questions {
		if q.Questionnaire == questionnaire && q.Prompt == prompt {
			q := q
			return &q, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memStore) Create(_ context.Context, q *models.Question) error {
	q.ID = int64(len(m.questions) + 1)
	m.questions = append(m.questions, *q)
	return nil
}

func (m *memStore) Update(_ context.Context, q *models.Question) error {
	for i := range m.questions {
		if m.questions[i].ID == q.ID {
			m.questions[i] = *q
			m.updates++
			return nil
		}
	}
	return database.ErrNotFound
}

var header = []interface{}{"questionnaire", "categorie", "astag", "question", "A", "B", "C", "D", "reponse", "image"}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range append([][]interface{}{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "questions.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportQuestions_Excel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{1, "Signalisation", "panneaux", "Ce panneau indique ?", "Stop", "Cédez le passage", "Sens interdit", "", "a", "https://img.example/1.png"},
		{2, "", "", "Je peux dépasser ?", "Oui", "Non", "Seulement à droite", "Jamais", "B", ""},
		{1, "Vitesse", "", "Deux options seulement", "Oui", "Non", "", "", "A", ""},
		{1, "Vitesse", "", "Mauvaise lettre", "Oui", "Non", "Peut-être", "", "D", ""},
		{"x", "Vitesse", "", "Questionnaire invalide", "Oui", "Non", "Peut-être", "", "A", ""},
	})

	store := &memStore{}
	im := NewImporter(store, logger.Discard())
	res, err := im.ImportQuestions(context.Background(), ImportConfig{
		FilePath: path, QuestionnaireColumn: "A", CategoryColumn: "B", AstagColumn: "C", PromptColumn: "D",
		OptionAColumn: "E", OptionBColumn: "F", OptionCColumn: "G", OptionDColumn: "H", CorrectColumn: "I",
		ImageColumn: "J", StartRow: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalProcessed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "Row 4")

	require.Len(t, store.questions, 2)
	first := store.questions[0]
	assert.Equal(t, "A", first.Correct)
	require.NotNil(t, first.Category)
	assert.Equal(t, "Signalisation", *first.Category)
	assert.Nil(t, first.OptionD)
	assert.Equal(t, "https://img.example/1.png", first.Image)

	second := store.questions[1]
	assert.Equal(t, 2, second.Questionnaire)
	assert.Nil(t, second.Category)
	require.NotNil(t, second.OptionD)
	assert.Equal(t, "Jamais", *second.OptionD)
}

func TestImportQuestions_UpdatesExisting(t *testing.T) {
	cat := "Priorités"
	store := &memStore{questions: []models.Question{
		{ID: 1, Questionnaire: 1, Category: &cat, Prompt: "Qui passe ?", OptionA: "Moi", OptionB: "Lui", OptionC: "Personne", Correct: "A"},
		{ID: 2, Questionnaire: 1, Category: &cat, Prompt: "Inchangée", OptionA: "a", OptionB: "b", OptionC: "c", Correct: "C"},
	}}

	csvPath := filepath.Join(t.TempDir(), "questions.csv")
	content := "questionnaire,categorie,astag,question,A,B,C,D,reponse,image\n" +
		"1,Priorités,,Qui passe ?,Moi,Lui,Personne,,B,\n" +
		"1,Priorités,,Inchangée,a,b,c,,C,\n" +
		",,,,,,,,,\n" +
		"1,Priorités,,Nouvelle,a,b,c,d,D,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))

	cfg := DefaultImportConfig()
	cfg.FilePath = csvPath
	res, err := NewImporter(store, logger.Discard()).ImportQuestions(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalProcessed)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Errors)

	assert.Equal(t, 1, store.updates)
	assert.Equal(t, "B", store.questions[0].Correct)
	assert.Equal(t, int64(1), store.questions[0].ID)
	assert.Len(t, store.questions, 3)
}

func TestImportQuestions_MissingFile(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "absent.xlsx")
	_, err := NewImporter(&memStore{}, logger.Discard()).ImportQuestions(context.Background(), cfg)
	assert.Error(t, err)
}

func TestResolveColumns_Invalid(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.PromptColumn = "1"
	_, err := resolveColumns(cfg)
	assert.Error(t, err)
}

func TestParseRow(t *testing.T) {
	cols, err := resolveColumns(DefaultImportConfig())
	require.NoError(t, err)

	tests := []struct {
		name    string
		row     []string
		wantErr string
	}{
		{"valid", []string{"3", "Vitesse", "", "Q", "a", "b", "c", "", " c "}, ""},
		{"empty prompt", []string{"1", "", "", "", "a", "b", "c", "", "A"}, "empty"},
		{"short row", []string{"1", "", "", "Q", "a"}, "three options"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parseRow(tt.row, cols)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 3, q.Questionnaire)
			assert.Equal(t, "C", q.Correct)
			assert.Equal(t, fmt.Sprint(q.Options()), fmt.Sprint(map[string]string{"A": "a", "B": "b", "C": "c"}))
		})
	}
}
