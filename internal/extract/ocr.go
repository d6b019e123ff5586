package extract

import (
	"github.com/otiai10/gosseract/v2"
)

// OCREngine recognizes text in an encoded page image using a given page
// segmentation mode.
type OCREngine interface {
	Recognize(png []byte, mode gosseract.PageSegMode) (string, error)
}

// ocrSegModeCascade lists the segmentation modes tried in priority order:
// uniform block first, then full automatic layout analysis, then automatic
// with orientation and script detection.
var ocrSegModeCascade = []gosseract.PageSegMode{
	gosseract.PSM_SINGLE_BLOCK,
	gosseract.PSM_AUTO,
	gosseract.PSM_AUTO_OSD,
}

// TesseractEngine implements OCREngine on a local Tesseract installation.
type TesseractEngine struct {
	languages []string
}

// NewTesseractEngine creates an engine recognizing the given languages
// (e.g. "spa", "eng").
func NewTesseractEngine(languages []string) *TesseractEngine {
	return &TesseractEngine{languages: languages}
}

// Recognize runs one OCR pass. A fresh client per call keeps the engine
// safe for use from concurrent page workers.
func (e *TesseractEngine) Recognize(png []byte, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", err
	}
	client.SetPageSegMode(mode)
	if err := client.SetImageFromBytes(png); err != nil {
		return "", err
	}
	return client.Text()
}
