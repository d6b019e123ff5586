package extract

import (
	"context"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"docanalyzer/internal/logger"
)

const (
	// minOCRConfigOutput is the output length at which an OCR segmentation
	// mode is accepted without trying the next one.
	minOCRConfigOutput = 20

	// minVisionOutput filters vision responses too short to be useful.
	minVisionOutput = 15
)

// VisionTextExtractor submits a JPEG page image to a vision-capable model
// and returns the transcribed text.
type VisionTextExtractor interface {
	ExtractImageText(ctx context.Context, jpeg []byte) (string, error)
}

// PageText carries both extraction outputs for one page. OCR and vision
// results are complementary, not redundant, so both are preserved.
type PageText struct {
	OCRText      string
	VisionText   string
	VisionReason string
}

// PageExtractor runs the hybrid OCR/vision extraction for a single page
// image: a cascade of OCR configurations, then an optional vision pass when
// the decision rules warrant the extra cost.
type PageExtractor struct {
	engine OCREngine
	vision VisionTextExtractor
	log    zerolog.Logger
}

// NewPageExtractor creates a page extractor. A nil vision extractor
// disables the vision pass entirely (no API key configured).
func NewPageExtractor(engine OCREngine, vision VisionTextExtractor) *PageExtractor {
	return &PageExtractor{
		engine: engine,
		vision: vision,
		log:    logger.WithComponent("page-extractor"),
	}
}

// VisionAvailable reports whether the vision pass can run.
func (p *PageExtractor) VisionAvailable() bool {
	return p.vision != nil
}

// Extract processes one page image. OCR failures degrade to empty output
// for that configuration; vision failures degrade to empty vision text.
// The page as a whole never errors.
func (p *PageExtractor) Extract(ctx context.Context, img image.Image, pageNum, totalPages int) PageText {
	result := PageText{OCRText: p.runOCR(img, pageNum)}

	if p.vision == nil {
		return result
	}

	useVision, reason := ShouldUseVision(pageNum, result.OCRText, totalPages)
	if !useVision {
		p.log.Debug().
			Int("page", pageNum).
			Msg("Vision pass skipped, OCR sufficient")
		return result
	}

	result.VisionReason = reason
	p.log.Info().
		Int("page", pageNum).
		Str("reason", reason).
		Msg("Running vision pass")

	jpeg, err := EncodeForVision(img)
	if err != nil {
		p.log.Warn().Err(err).Int("page", pageNum).Msg("Failed to encode page for vision")
		return result
	}

	visionText, err := p.vision.ExtractImageText(ctx, jpeg)
	if err != nil {
		p.log.Warn().Err(err).Int("page", pageNum).Msg("Vision pass failed")
		return result
	}

	if len(strings.TrimSpace(visionText)) > minVisionOutput {
		result.VisionText = visionText
		p.log.Info().
			Int("page", pageNum).
			Int("vision_chars", len(visionText)).
			Int("ocr_chars", len(result.OCRText)).
			Msg("Vision pass completed")
	}

	return result
}

// runOCR preprocesses the image and tries the segmentation mode cascade,
// stopping at the first configuration that produces substantial output.
func (p *PageExtractor) runOCR(img image.Image, pageNum int) string {
	encoded, err := encodePNG(PreprocessForOCR(img))
	if err != nil {
		p.log.Warn().Err(err).Int("page", pageNum).Msg("Failed to encode preprocessed page")
		return ""
	}

	var text string
	for _, mode := range ocrSegModeCascade {
		out, err := p.engine.Recognize(encoded, mode)
		if err != nil {
			p.log.Debug().
				Err(err).
				Int("page", pageNum).
				Int("psm", int(mode)).
				Msg("OCR configuration failed")
			continue
		}
		text = out
		if len(strings.TrimSpace(out)) > minOCRConfigOutput {
			break
		}
	}
	return text
}
