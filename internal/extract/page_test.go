package extract

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOCREngine returns canned text per segmentation mode.
type fakeOCREngine struct {
	byMode map[gosseract.PageSegMode]string
	errs   map[gosseract.PageSegMode]error
	calls  []gosseract.PageSegMode
}

func (f *fakeOCREngine) Recognize(png []byte, mode gosseract.PageSegMode) (string, error) {
	f.calls = append(f.calls, mode)
	if err := f.errs[mode]; err != nil {
		return "", err
	}
	return f.byMode[mode], nil
}

type fakeVision struct {
	text  string
	err   error
	calls int
}

func (f *fakeVision) ExtractImageText(ctx context.Context, jpeg []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

func testPage() image.Image {
	return uniformGray(100, 100, 200)
}

func TestExtractStopsCascadeOnSubstantialOutput(t *testing.T) {
	engine := &fakeOCREngine{byMode: map[gosseract.PageSegMode]string{
		gosseract.PSM_SINGLE_BLOCK: strings.Repeat("texto reconocido correctamente ", 5),
	}}
	p := NewPageExtractor(engine, nil)

	result := p.Extract(context.Background(), testPage(), 3, 8)

	assert.Contains(t, result.OCRText, "texto reconocido")
	require.Len(t, engine.calls, 1)
	assert.Equal(t, gosseract.PSM_SINGLE_BLOCK, engine.calls[0])
}

func TestExtractCascadesThroughModes(t *testing.T) {
	long := strings.Repeat("resultado del modo automático ", 5)
	engine := &fakeOCREngine{byMode: map[gosseract.PageSegMode]string{
		gosseract.PSM_SINGLE_BLOCK: "corto",
		gosseract.PSM_AUTO:         long,
	}}
	p := NewPageExtractor(engine, nil)

	result := p.Extract(context.Background(), testPage(), 3, 8)

	assert.Equal(t, long, result.OCRText)
	assert.Equal(t, []gosseract.PageSegMode{gosseract.PSM_SINGLE_BLOCK, gosseract.PSM_AUTO}, engine.calls)
}

func TestExtractKeepsLastOutputWhenAllModesShort(t *testing.T) {
	engine := &fakeOCREngine{byMode: map[gosseract.PageSegMode]string{
		gosseract.PSM_SINGLE_BLOCK: "a",
		gosseract.PSM_AUTO:         "bb",
		gosseract.PSM_AUTO_OSD:     "ccc",
	}}
	p := NewPageExtractor(engine, nil)

	result := p.Extract(context.Background(), testPage(), 3, 8)

	// Every configuration was tried and the most recent output survives.
	assert.Equal(t, "ccc", result.OCRText)
	assert.Len(t, engine.calls, 3)
}

func TestExtractToleratesModeErrors(t *testing.T) {
	long := strings.Repeat("texto recuperado en el segundo intento ", 3)
	engine := &fakeOCREngine{
		byMode: map[gosseract.PageSegMode]string{gosseract.PSM_AUTO: long},
		errs:   map[gosseract.PageSegMode]error{gosseract.PSM_SINGLE_BLOCK: errors.New("tesseract crashed")},
	}
	p := NewPageExtractor(engine, nil)

	result := p.Extract(context.Background(), testPage(), 3, 8)
	assert.Equal(t, long, result.OCRText)
}

func TestExtractRunsVisionOnWeakOCR(t *testing.T) {
	engine := &fakeOCREngine{} // every mode returns empty text
	vision := &fakeVision{text: "Texto transcrito por el modelo de visión"}
	p := NewPageExtractor(engine, vision)

	result := p.Extract(context.Background(), testPage(), 3, 8)

	assert.Equal(t, 1, vision.calls)
	assert.Equal(t, vision.text, result.VisionText)
	assert.Equal(t, "OCR insuficiente", result.VisionReason)
}

func TestExtractSkipsVisionOnGoodOCR(t *testing.T) {
	// Middle page of a short document with long neutral prose: no decision
	// rule fires.
	engine := &fakeOCREngine{byMode: map[gosseract.PageSegMode]string{
		gosseract.PSM_SINGLE_BLOCK: neutralText,
	}}
	vision := &fakeVision{text: "no debería llamarse"}
	p := NewPageExtractor(engine, vision)

	result := p.Extract(context.Background(), testPage(), 4, 8)

	assert.Zero(t, vision.calls)
	assert.Empty(t, result.VisionText)
	assert.Empty(t, result.VisionReason)
}

func TestExtractVisionFailureDegrades(t *testing.T) {
	engine := &fakeOCREngine{}
	vision := &fakeVision{err: errors.New("api unavailable")}
	p := NewPageExtractor(engine, vision)

	result := p.Extract(context.Background(), testPage(), 1, 1)

	assert.Empty(t, result.VisionText)
	assert.Equal(t, "OCR insuficiente", result.VisionReason)
}

func TestExtractDiscardsTrivialVisionOutput(t *testing.T) {
	engine := &fakeOCREngine{}
	vision := &fakeVision{text: "breve"}
	p := NewPageExtractor(engine, vision)

	result := p.Extract(context.Background(), testPage(), 1, 1)
	assert.Empty(t, result.VisionText)
}

func TestVisionAvailable(t *testing.T) {
	assert.False(t, NewPageExtractor(&fakeOCREngine{}, nil).VisionAvailable())
	assert.True(t, NewPageExtractor(&fakeOCREngine{}, &fakeVision{}).VisionAvailable())
}
