package converter

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
)

// qualityPercent maps a (0, 1] quality to the 1..100 scale of the codecs.
func qualityPercent(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

type jpegEncoder struct{}

func (jpegEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(qualityPercent(quality))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pngEncoder struct{}

func (pngEncoder) Encode(img image.Image, _ float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// webpEncoder runs libwebp compiled to WebAssembly, so it needs neither cgo
// nor a system library. The vips and imagick backends replace it when built
// in.
type webpEncoder struct{}

func (webpEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: qualityPercent(quality), Method: 4}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
