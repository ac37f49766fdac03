//go:build vips

package converter

import (
	"fmt"
	"image"

	"github.com/davidbyttow/govips/v2/vips"
)

func init() {
	vips.LoggingSettings(nil, vips.LogLevelError)
	vips.Startup(nil)
	registerEncoder(MediaWEBP, vipsWebpEncoder{})
}

// vipsWebpEncoder hands the raster to libvips as a lossless PNG and lets it
// produce the WEBP.
type vipsWebpEncoder struct{}

func (vipsWebpEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	lossless, err := pngEncoder{}.Encode(img, 1)
	if err != nil {
		return nil, err
	}
	ref, err := vips.NewImageFromBuffer(lossless)
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	params := vips.NewWebpExportParams()
	params.Quality = qualityPercent(quality)
	out, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("vips webp export: %w", err)
	}
	return out, nil
}
