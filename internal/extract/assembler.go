package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog"

	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
	"docanalyzer/pkg/models"
)

const mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// AssemblerConfig tunes document-level extraction.
type AssemblerConfig struct {
	// NativeTextMin is the aggregate character count above which a PDF's
	// own text layer is accepted as primary text.
	NativeTextMin int

	// RenderDPIs are tried in order when rasterizing PDF pages; the first
	// DPI that renders a page wins.
	RenderDPIs []float64
}

// DefaultAssemblerConfig returns the production rendering settings.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		NativeTextMin: 100,
		RenderDPIs:    []float64{150, 200},
	}
}

// Assembler drives page extraction across a whole document and produces a
// single text blob per input, choosing between native-text extraction and
// the OCR/vision fallback.
type Assembler struct {
	pages  *PageExtractor
	config AssemblerConfig
	log    zerolog.Logger
}

// NewAssembler creates an assembler with default configuration.
func NewAssembler(pages *PageExtractor) *Assembler {
	return NewAssemblerWithConfig(pages, DefaultAssemblerConfig())
}

// NewAssemblerWithConfig creates an assembler with explicit configuration.
func NewAssemblerWithConfig(pages *PageExtractor, config AssemblerConfig) *Assembler {
	return &Assembler{
		pages:  pages,
		config: config,
		log:    logger.WithComponent("assembler"),
	}
}

// Assemble extracts the full text of one raw document. An ErrNoTextExtracted
// error means every method came up empty; callers treat that as a failure of
// this document only.
func (a *Assembler) Assemble(ctx context.Context, doc models.RawDocument) (*models.ExtractedText, error) {
	const op = "Assemble"

	a.log.Info().
		Str("filename", doc.Filename).
		Str("mime_type", doc.MimeType).
		Int("size", len(doc.Content)).
		Msg("Starting document extraction")

	var (
		result *models.ExtractedText
		err    error
	)

	switch {
	case doc.MimeType == "application/pdf":
		result, err = a.assemblePDF(ctx, doc)
	case doc.MimeType == mimeDOCX:
		result, err = a.assembleDOCX(doc)
	case strings.HasPrefix(doc.MimeType, "image/"):
		result, err = a.assembleImage(ctx, doc)
	default:
		result, err = a.assemblePlainText(doc)
	}

	if err != nil {
		return nil, WrapExtractError(op, err, doc.Filename)
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, WrapExtractError(op, ErrNoTextExtracted, doc.Filename)
	}

	result.Filename = doc.Filename
	result.CharCount = len(result.Text)
	metrics.DocumentsProcessed.WithLabelValues(string(result.Method)).Inc()

	a.log.Info().
		Str("filename", doc.Filename).
		Str("method", string(result.Method)).
		Int("chars", result.CharCount).
		Msg("Document extraction completed")

	return result, nil
}

// assemblePDF tries the PDF's native text layer first. When the layer is
// substantial and no vision capability exists, it is accepted as-is. With
// vision available the hybrid pass still runs as a complement, because
// scanned inserts inside otherwise-native PDFs are common.
func (a *Assembler) assemblePDF(ctx context.Context, doc models.RawDocument) (*models.ExtractedText, error) {
	pdf, err := fitz.NewFromMemory(doc.Content)
	if err != nil {
		return nil, WrapExtractError("assemblePDF", ErrInvalidPDF, err.Error())
	}
	defer pdf.Close()

	totalPages := pdf.NumPage()

	var native strings.Builder
	for i := 0; i < totalPages; i++ {
		pageText, err := pdf.Text(i)
		if err != nil {
			a.log.Debug().Err(err).Int("page", i+1).Msg("Native text extraction failed for page")
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			native.WriteString(pageText)
			native.WriteString("\n")
		}
	}

	nativeText := native.String()
	nativeSufficient := len(strings.TrimSpace(nativeText)) > a.config.NativeTextMin

	if nativeSufficient && !a.pages.VisionAvailable() {
		return &models.ExtractedText{
			Text:      nativeText,
			Method:    models.MethodNative,
			PageCount: totalPages,
		}, nil
	}

	ocrText, visionText := a.runHybridPages(ctx, pdf, totalPages)

	var final strings.Builder
	if nativeSufficient {
		final.WriteString(nativeText)
	}
	if strings.TrimSpace(ocrText) != "" {
		final.WriteString(ocrText)
	}
	if strings.TrimSpace(visionText) != "" {
		final.WriteString("\n\n=== TEXTO ADICIONAL (Vision API) ===\n")
		final.WriteString(visionText)
	}

	method := models.MethodOCR
	switch {
	case strings.TrimSpace(visionText) != "":
		method = models.MethodOCRVision
	case strings.TrimSpace(ocrText) == "" && nativeSufficient:
		method = models.MethodNative
	}

	return &models.ExtractedText{
		Text:      final.String(),
		Method:    method,
		PageCount: totalPages,
	}, nil
}

// runHybridPages rasterizes every page and delegates it to the page
// extractor, labeling each contribution so OCR and vision sections are
// never silently merged.
func (a *Assembler) runHybridPages(ctx context.Context, pdf *fitz.Document, totalPages int) (ocrText, visionText string) {
	var ocr, vision strings.Builder

	for i := 0; i < totalPages; i++ {
		img := a.renderPage(pdf, i)
		if img == nil {
			continue
		}

		page := a.pages.Extract(ctx, img, i+1, totalPages)

		if strings.TrimSpace(page.OCRText) != "" {
			fmt.Fprintf(&ocr, "\n--- PÁGINA %d (OCR) ---\n%s\n", i+1, page.OCRText)
		}
		if page.VisionText != "" {
			fmt.Fprintf(&vision, "\n--- PÁGINA %d (Vision AI) ---\n%s\n", i+1, page.VisionText)
		}
	}

	return ocr.String(), vision.String()
}

// renderPage rasterizes one page, walking the DPI fallback list.
func (a *Assembler) renderPage(pdf *fitz.Document, pageIdx int) image.Image {
	for _, dpi := range a.config.RenderDPIs {
		img, err := pdf.ImageDPI(pageIdx, dpi)
		if err != nil {
			a.log.Debug().
				Err(err).
				Int("page", pageIdx+1).
				Float64("dpi", dpi).
				Msg("Page render failed, trying next DPI")
			continue
		}
		return img
	}
	a.log.Warn().Int("page", pageIdx+1).Msg("Could not render page at any DPI")
	return nil
}

// assembleDOCX walks every paragraph of the document body.
func (a *Assembler) assembleDOCX(doc models.RawDocument) (*models.ExtractedText, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, WrapExtractError("assembleDOCX", ErrInvalidDOCX, err.Error())
	}
	defer reader.Close()

	var text strings.Builder
	for _, paragraph := range docxParagraphs(reader.Editable().GetContent()) {
		text.WriteString(paragraph)
		text.WriteString("\n")
	}

	return &models.ExtractedText{
		Text:   text.String(),
		Method: models.MethodNative,
	}, nil
}

// docxParagraphs extracts the visible text runs of each paragraph from the
// raw document XML.
func docxParagraphs(content string) []string {
	var paragraphs []string
	for _, block := range strings.Split(content, "<w:p")[1:] {
		var text strings.Builder
		for _, part := range strings.Split(block, "<w:t")[1:] {
			// Skip past the tag's attributes to its content.
			start := strings.Index(part, ">")
			if start < 0 {
				continue
			}
			end := strings.Index(part, "</w:t>")
			if end < 0 || end < start {
				continue
			}
			text.WriteString(part[start+1 : end])
		}
		if trimmed := strings.TrimSpace(text.String()); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// assembleImage runs the single-image equivalent of the page pipeline,
// keeping OCR and vision outputs under labeled sections.
func (a *Assembler) assembleImage(ctx context.Context, doc models.RawDocument) (*models.ExtractedText, error) {
	img, _, err := image.Decode(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, WrapExtractError("assembleImage", ErrInvalidImage, err.Error())
	}

	page := a.pages.Extract(ctx, img, 1, 1)

	var text strings.Builder
	if strings.TrimSpace(page.OCRText) != "" {
		text.WriteString("=== TEXTO OCR ===\n")
		text.WriteString(strings.TrimSpace(page.OCRText))
		text.WriteString("\n\n")
	}
	if page.VisionText != "" && page.VisionText != strings.TrimSpace(page.OCRText) {
		text.WriteString("=== TEXTO VISION API ===\n")
		text.WriteString(page.VisionText)
		text.WriteString("\n\n")
	}

	method := models.MethodOCR
	if page.VisionText != "" {
		method = models.MethodOCRVision
	}

	return &models.ExtractedText{
		Text:      text.String(),
		Method:    method,
		PageCount: 1,
	}, nil
}

// assemblePlainText is the best-effort path for unknown MIME types:
// decode as UTF-8, dropping undecodable bytes.
func (a *Assembler) assemblePlainText(doc models.RawDocument) (*models.ExtractedText, error) {
	return &models.ExtractedText{
		Text:   strings.ToValidUTF8(string(doc.Content), ""),
		Method: models.MethodNative,
	}, nil
}
