package answer

import (
	"encoding/json"
	"fmt"

	"docanalyzer/pkg/models"
)

// DefaultQuestions is the fixed question set for Colombian public
// procurement documents. Each question instructs the model to answer with
// the bare fact only, which keeps the denylist and dedup logic effective.
var DefaultQuestions = []string{
	"¿Cuál es el nombre oficial de la entidad contratante o institución que está comprando o contratando? Responde ÚNICAMENTE con el nombre de la organización, sin frases como 'El nombre oficial es' o explicaciones adicionales. No incluyas ciudades, direcciones ni ubicaciones geográficas.",
	"¿Cuál es el número de NIT o identificación tributaria de la entidad contratante? Responde ÚNICAMENTE con los números del NIT, sin frases como 'El NIT es' o explicaciones adicionales. Sin espacios ni caracteres especiales.",
	"¿Cuál es la dirección física completa de la entidad contratante? Responde ÚNICAMENTE con la dirección postal, sin frases como 'La dirección es' o explicaciones adicionales. No incluyas nombres de entidades.",
	"¿En qué ciudad está ubicada la entidad contratante? Responde ÚNICAMENTE con el nombre de la ciudad, sin frases como 'La ciudad es' o explicaciones adicionales.",
	"¿Cuál es el objeto específico del contrato, licitación o proceso de compra? Responde ÚNICAMENTE con la descripción del objeto, sin frases como 'El objeto es' o explicaciones adicionales.",
	"¿Cuál es el valor total del contrato, presupuesto o monto estimado? Responde ÚNICAMENTE con la cifra numérica y su moneda, sin frases como 'El valor es' o explicaciones adicionales.",
	"¿Qué requisitos de experiencia específica se mencionan para los proponentes o contratistas? Responde ÚNICAMENTE con los requisitos, sin frases introductorias o explicaciones adicionales.",
	"¿Qué requisitos se mencionan sobre afiliación a salud, pensión o seguridad social? Responde ÚNICAMENTE con los requisitos, sin frases introductorias o explicaciones adicionales.",
	"¿Qué documentos anexos, formatos específicos o certificados se requieren entregar? Responde ÚNICAMENTE con la lista de documentos, sin frases introductorias o explicaciones adicionales.",
	"¿Cuál es el cronograma detallado del proceso? Responde ÚNICAMENTE con las fechas, horarios y actividades tal como aparecen en el documento, sin frases introductorias o explicaciones adicionales.",
}

// MergeQuestions appends user-supplied questions to the default list and
// assigns stable 1-based positions.
func MergeQuestions(custom []string) []models.Question {
	texts := make([]string, 0, len(DefaultQuestions)+len(custom))
	texts = append(texts, DefaultQuestions...)
	texts = append(texts, custom...)

	questions := make([]models.Question, len(texts))
	for i, text := range texts {
		questions[i] = models.Question{Text: text, Position: i + 1}
	}
	return questions
}

// ParseCustomQuestions decodes a user-supplied JSON array of question
// strings.
func ParseCustomQuestions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("custom questions must be a JSON array of strings: %w", err)
	}
	return questions, nil
}
