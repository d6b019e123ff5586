package models

// ExtractionMethod identifies how a document's text was obtained.
type ExtractionMethod string

const (
	// MethodNative means the text came from the document's own text layer.
	MethodNative ExtractionMethod = "native"

	// MethodOCR means the text was recognized from rendered page images.
	MethodOCR ExtractionMethod = "ocr"

	// MethodOCRVision means OCR output was complemented with a vision model pass.
	MethodOCRVision ExtractionMethod = "ocr+vision"
)

// RawDocument is a single uploaded document before any processing.
type RawDocument struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"-"`
}

// ExtractedText is the assembled plain text of one document.
// An empty Text means extraction failed for that document.
type ExtractedText struct {
	Filename  string           `json:"filename"`
	Text      string           `json:"-"`
	Method    ExtractionMethod `json:"method"`
	CharCount int              `json:"char_count"`
	PageCount int              `json:"page_count,omitempty"`
}

// TextFragment is a bounded, word-limited slice of a document's text.
// Fragments overlap by a fixed word window at hard-split boundaries.
type TextFragment struct {
	Index     int    `json:"index"`
	Text      string `json:"-"`
	WordCount int    `json:"word_count"`
}
