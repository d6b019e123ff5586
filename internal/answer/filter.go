package answer

import (
	"sort"
	"strings"

	"docanalyzer/pkg/models"
)

// keywordBucket maps a question topic onto the fragment keywords that
// indicate relevance for it.
type keywordBucket struct {
	topic    string
	keywords []string
}

// keywordBuckets is matched in order; the first bucket whose keywords
// appear in the question wins.
var keywordBuckets = []keywordBucket{
	{"entidad", []string{"entidad", "institución", "ministerio", "alcaldía", "gobernación", "empresa", "contratante"}},
	{"nit", []string{"nit", "identificación", "tributaria", "rut"}},
	{"ciudad", []string{"ciudad", "municipio", "sede", "ubicación"}},
	{"direccion", []string{"dirección", "calle", "carrera", "avenida"}},
	{"valor", []string{"valor", "presupuesto", "precio", "costo", "$", "pesos", "millones"}},
	{"cronograma", []string{"fecha", "plazo", "término", "cronograma", "tiempo"}},
	{"experiencia", []string{"experiencia", "requisitos", "años", "similar"}},
	{"salud", []string{"salud", "pensión", "seguridad social", "afiliación"}},
	{"anexos", []string{"anexos", "formatos", "documentos", "certificado"}},
}

// defaultUnrankedFragments is how many leading fragments are returned when
// a question matches no topic bucket (assume broad relevance).
const defaultUnrankedFragments = 3

// SelectRelevant scores fragments against the question's keyword profile
// and returns the most relevant subset ordered by descending score. Pure
// function: identical inputs always yield the identical result.
func SelectRelevant(fragments []models.TextFragment, question models.Question) []models.TextFragment {
	keywords := bucketKeywords(question.Text)
	if keywords == nil {
		if len(fragments) <= defaultUnrankedFragments {
			return fragments
		}
		return fragments[:defaultUnrankedFragments]
	}

	type scoredFragment struct {
		fragment models.TextFragment
		score    int
	}

	var scored []scoredFragment
	for _, fragment := range fragments {
		lower := strings.ToLower(fragment.Text)
		score := 0
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredFragment{fragment, score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	keep := 3
	if len(scored) > 5 {
		keep = 2
	}
	if len(scored) < keep {
		keep = len(scored)
	}

	selected := make([]models.TextFragment, 0, keep)
	for _, s := range scored[:keep] {
		selected = append(selected, s.fragment)
	}
	return selected
}

func bucketKeywords(question string) []string {
	lower := strings.ToLower(question)
	for _, bucket := range keywordBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(lower, keyword) {
				return bucket.keywords
			}
		}
	}
	return nil
}
