//go:build imagick

package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"gopkg.in/gographics/imagick.v2/imagick"
)

func init() {
	imagick.Initialize()
	registerEncoder(MediaWEBP, imagickEncoder{format: "WEBP"})
	registerFallbackDecoder(imagickDecoder{})
}

type imagickEncoder struct {
	format string
}

func (e imagickEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	lossless, err := pngEncoder{}.Encode(img, 1)
	if err != nil {
		return nil, err
	}
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImageBlob(lossless); err != nil {
		return nil, fmt.Errorf("imagick read: %w", err)
	}
	if err := mw.SetImageFormat(e.format); err != nil {
		return nil, fmt.Errorf("imagick set format %s: %w", e.format, err)
	}
	if err := mw.SetImageCompressionQuality(uint(qualityPercent(quality))); err != nil {
		return nil, fmt.Errorf("imagick set quality: %w", err)
	}
	return mw.GetImageBlob(), nil
}

// imagickDecoder reads whatever ImageMagick understands (HEIC, AVIF, PSD...)
// and hands it back through PNG.
type imagickDecoder struct{}

func (imagickDecoder) Decode(data []byte) (image.Image, error) {
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImageBlob(data); err != nil {
		return nil, fmt.Errorf("imagick read: %w", err)
	}
	if err := mw.SetImageFormat("PNG"); err != nil {
		return nil, fmt.Errorf("imagick set format: %w", err)
	}
	return png.Decode(bytes.NewReader(mw.GetImageBlob()))
}
