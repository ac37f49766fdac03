package converter

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"imgtools/utils"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// stdDecoder reads every format registered with the image package and
// turns JPEGs upright according to their EXIF orientation.
type stdDecoder struct {
	fallbacks []Decoder
}

func (d *stdDecoder) Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			if looksLikeSVG(data) {
				svg, svgErr := RasterizeSVG(data, 1)
				if svgErr != nil {
					return nil, svgErr
				}
				return svg, nil
			}
			for _, fb := range d.fallbacks {
				if img, fbErr := fb.Decode(data); fbErr == nil {
					return img, nil
				}
			}
		}
		return nil, err
	}
	if format == "jpeg" {
		orientation, err := utils.ExifOrientation(data)
		if err == nil {
			img = applyOrientation(img, orientation)
		}
	}
	return img, nil
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("<svg"))
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
