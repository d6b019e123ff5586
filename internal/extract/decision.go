package extract

import (
	"strings"
	"unicode"
)

const (
	// minOCRTextLen is the OCR output length below which a page is
	// considered insufficiently recognized.
	minOCRTextLen = 50

	// digitDensityLimit marks pages whose OCR output is dominated by
	// numbers, a proxy for financial and contractual tables.
	digitDensityLimit = 0.10

	// longDocPages is the page count above which periodic sampling kicks in.
	longDocPages = 10

	// samplingInterval selects every Nth page of long documents.
	samplingInterval = 3
)

// tableGlyphs are box-drawing characters that survive OCR of ruled tables.
var tableGlyphs = []string{"│", "┌", "┐", "└", "┘", "├", "┤", "┬", "┴", "┼"}

// legalKeywords flag contractual content that warrants the expensive pass.
var legalKeywords = []string{
	"contrato", "valor", "presupuesto", "nit", "entidad",
	"cronograma", "plazo", "anexo", "requisitos", "firma",
}

type pageContext struct {
	PageNum    int // 1-based
	TotalPages int
	OCRText    string
}

// visionRule pairs a predicate with the reason logged when it fires.
type visionRule struct {
	reason  string
	applies func(pageContext) bool
}

// visionRules is evaluated in order with short-circuit OR semantics; the
// first rule that fires supplies the logged reason.
var visionRules = []visionRule{
	{
		reason: "OCR insuficiente",
		applies: func(p pageContext) bool {
			return len(strings.TrimSpace(p.OCRText)) < minOCRTextLen
		},
	},
	{
		reason: "tablas detectadas",
		applies: func(p pageContext) bool {
			for _, glyph := range tableGlyphs {
				if strings.Contains(p.OCRText, glyph) {
					return true
				}
			}
			return false
		},
	},
	{
		reason: "alto contenido numérico",
		applies: func(p pageContext) bool {
			return digitDensity(p.OCRText) > digitDensityLimit
		},
	},
	{
		reason: "contenido legal crítico",
		applies: func(p pageContext) bool {
			lower := strings.ToLower(p.OCRText)
			for _, keyword := range legalKeywords {
				if strings.Contains(lower, keyword) {
					return true
				}
			}
			return false
		},
	},
	{
		reason: "página crítica (primera/última)",
		applies: func(p pageContext) bool {
			return p.PageNum == 1 || p.PageNum == p.TotalPages
		},
	},
	{
		reason: "muestreo en documento largo",
		applies: func(p pageContext) bool {
			return p.TotalPages > longDocPages && p.PageNum%samplingInterval == 0
		},
	},
}

// ShouldUseVision decides whether a page warrants the supplementary vision
// pass on top of its OCR result, returning the first matching reason.
func ShouldUseVision(pageNum int, ocrText string, totalPages int) (bool, string) {
	ctx := pageContext{PageNum: pageNum, TotalPages: totalPages, OCRText: ocrText}
	for _, rule := range visionRules {
		if rule.applies(ctx) {
			return true, rule.reason
		}
	}
	return false, ""
}

func digitDensity(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len(runes))
}
