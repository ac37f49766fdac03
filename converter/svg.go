package converter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// RasterizeSVG renders an SVG at scale times its natural size.
func RasterizeSVG(svgData []byte, scale float64) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}

	w, h := naturalSize(svgData, icon.ViewBox.W, icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has no intrinsic size (%gx%g)", w, h)
	}
	outW := int(math.Round(w * scale))
	outH := int(math.Round(h * scale))
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("scaled size %dx%d is empty", outW, outH)
	}

	icon.SetTarget(0, 0, float64(outW), float64(outH))

	img := image.NewRGBA(image.Rect(0, 0, outW, outH))
	scanner := rasterx.NewScannerGV(outW, outH, img, img.Bounds())
	raster := rasterx.NewDasher(outW, outH, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

// naturalSize prefers the root width and height attributes and falls back
// to the viewBox. A single given dimension keeps the viewBox aspect ratio.
func naturalSize(svgData []byte, vbW, vbH float64) (float64, float64) {
	w, h := rootDimensions(svgData)
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0 && vbW > 0 && vbH > 0:
		return w, w * vbH / vbW
	case h > 0 && vbW > 0 && vbH > 0:
		return h * vbW / vbH, h
	}
	return vbW, vbH
}

// rootDimensions reads width and height off the outermost element.
// Percentages and unparsable values yield 0.
func rootDimensions(svgData []byte) (width, height float64) {
	dec := xml.NewDecoder(bytes.NewReader(svgData))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				width = parseLength(attr.Value)
			case "height":
				height = parseLength(attr.Value)
			}
		}
		return width, height
	}
}

func parseLength(v string) float64 {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		return 0
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return f
}

func (c *Converter) svgToPNG(name string, data []byte, scale float64) ([]Output, error) {
	if scale == 0 {
		scale = DefaultSVGScale
	}
	if scale < 1 || scale > MaxSVGScale {
		return nil, fmt.Errorf("%w: scale must be between 1 and %g, got %g", ErrUnsupportedInput, MaxSVGScale, scale)
	}
	img, err := RasterizeSVG(data, scale)
	if err != nil {
		return nil, &ImageError{Name: name, Kind: ErrDecode, Err: err}
	}
	out, err := c.codecs().Encode(MediaPNG, img, 1)
	if err != nil {
		return nil, &ImageError{Name: name, Kind: ErrEncode, Err: err}
	}
	return []Output{{Name: ReplaceExt(name, ".png"), MediaType: MediaPNG, Data: out}}, nil
}
