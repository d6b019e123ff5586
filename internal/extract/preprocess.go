package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	// binarizeThreshold separates ink from paper after grayscale conversion.
	binarizeThreshold = 127

	// darkMeanLuminance marks images dark enough to need contrast
	// enhancement before binarization. Brighter scans take the cheap path.
	darkMeanLuminance = 100

	// visionMaxDimension bounds the longest side of images sent to the
	// vision endpoint.
	visionMaxDimension = 2048

	// visionJPEGQuality is the re-encode quality for vision submissions.
	visionJPEGQuality = 85
)

// PreprocessForOCR converts a page image to a clean binary image the OCR
// engine handles well: grayscale, then simple thresholding, with a contrast
// stretch applied first only when the scan is notably dark.
func PreprocessForOCR(img image.Image) *image.Gray {
	gray := toGray(img)

	if meanLuminance(gray) < darkMeanLuminance {
		stretchContrast(gray)
	}

	for i, v := range gray.Pix {
		if v > binarizeThreshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		clone := image.NewGray(g.Bounds())
		copy(clone.Pix, g.Pix)
		return clone
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func meanLuminance(gray *image.Gray) float64 {
	if len(gray.Pix) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range gray.Pix {
		sum += uint64(v)
	}
	return float64(sum) / float64(len(gray.Pix))
}

// stretchContrast linearly maps the observed luminance range onto the full
// 0-255 scale in place.
func stretchContrast(gray *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, v := range gray.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, v := range gray.Pix {
		gray.Pix[i] = uint8(float64(v-lo) * scale)
	}
}

// EncodeForVision downscales a page image to the vision size limit and
// re-encodes it as compressed JPEG to keep the request payload small.
func EncodeForVision(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > visionMaxDimension || h > visionMaxDimension {
		ratio := float64(visionMaxDimension) / float64(w)
		if hr := float64(visionMaxDimension) / float64(h); hr < ratio {
			ratio = hr
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*ratio), int(float64(h)*ratio)))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: visionJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
