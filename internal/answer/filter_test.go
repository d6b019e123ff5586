package answer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyzer/pkg/models"
)

func fragment(index int, text string) models.TextFragment {
	return models.TextFragment{Index: index, Text: text}
}

func TestSelectRelevantScoresByKeywords(t *testing.T) {
	fragments := []models.TextFragment{
		fragment(0, "Esta sección describe antecedentes generales del proceso."),
		fragment(1, "El valor del contrato asciende a $500 millones de pesos según el presupuesto oficial."),
		fragment(2, "El costo y precio final se define en el presupuesto del anexo técnico."),
	}
	question := models.Question{Text: "¿Cuál es el valor total del contrato?"}

	selected := SelectRelevant(fragments, question)

	require.Len(t, selected, 2)
	// Fragment 1 matches valor, $, pesos, millones, presupuesto; fragment 2
	// matches presupuesto, precio, costo. Fragment 0 matches nothing.
	assert.Equal(t, 1, selected[0].Index)
	assert.Equal(t, 2, selected[1].Index)
}

func TestSelectRelevantDropsZeroScoreFragments(t *testing.T) {
	fragments := []models.TextFragment{
		fragment(0, "Sección introductoria sin datos financieros."),
		fragment(1, "Otra sección narrativa igualmente genérica."),
	}
	question := models.Question{Text: "¿Cuál es el valor del presupuesto?"}

	assert.Empty(t, SelectRelevant(fragments, question))
}

func TestSelectRelevantUnmatchedQuestionTakesLeadingFragments(t *testing.T) {
	fragments := make([]models.TextFragment, 6)
	for i := range fragments {
		fragments[i] = fragment(i, fmt.Sprintf("Fragmento %d", i))
	}
	question := models.Question{Text: "¿Quién firma el acta de inicio del proyecto?"}

	// "firma" belongs to no topic bucket, so the first fragments are assumed
	// relevant.
	selected := SelectRelevant(fragments, question)

	require.Len(t, selected, defaultUnrankedFragments)
	for i, s := range selected {
		assert.Equal(t, i, s.Index)
	}
}

func TestSelectRelevantKeepsFewerWhenManyScore(t *testing.T) {
	fragments := make([]models.TextFragment, 7)
	for i := range fragments {
		fragments[i] = fragment(i, fmt.Sprintf("El cronograma fija la fecha %d y el plazo de entrega.", i))
	}
	question := models.Question{Text: "¿Cuál es el cronograma del proceso?"}

	// With more than five scoring fragments only the top two are kept to
	// bound token spend.
	assert.Len(t, SelectRelevant(fragments, question), 2)
}

func TestSelectRelevantStableOrderOnTies(t *testing.T) {
	fragments := []models.TextFragment{
		fragment(0, "La entidad contratante publica el aviso."),
		fragment(1, "La entidad contratante recibe las ofertas."),
	}
	question := models.Question{Text: "¿Cuál es el nombre de la entidad?"}

	selected := SelectRelevant(fragments, question)

	require.Len(t, selected, 2)
	assert.Equal(t, 0, selected[0].Index)
	assert.Equal(t, 1, selected[1].Index)
}

func TestSelectRelevantDeterministic(t *testing.T) {
	fragments := []models.TextFragment{
		fragment(0, "NIT 900123456 de la entidad."),
		fragment(1, "Identificación tributaria y RUT actualizado."),
	}
	question := models.Question{Text: "¿Cuál es el NIT de la entidad contratante?"}

	first := SelectRelevant(fragments, question)
	second := SelectRelevant(fragments, question)
	assert.Equal(t, first, second)
}

func TestBucketKeywords(t *testing.T) {
	tests := []struct {
		question string
		topic    string
	}{
		{"¿Cuál es el NIT de la entidad?", "entidad"},
		{"¿Qué identificación tributaria tiene?", "nit"},
		{"¿En qué ciudad está ubicada?", "ciudad"},
		{"¿Cuál es el valor total?", "valor"},
		{"¿Cuál es el cronograma con fechas?", "cronograma"},
		{"¿Qué documento de texto libre?", "anexos"},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got := bucketKeywords(tt.question)
			require.NotNil(t, got)
			// The returned list is the whole bucket, matched in declared order.
			for _, bucket := range keywordBuckets {
				if bucket.topic == tt.topic {
					assert.Equal(t, bucket.keywords, got)
				}
			}
		})
	}

	assert.Nil(t, bucketKeywords("¿Quién aprueba el acta?"))
}
