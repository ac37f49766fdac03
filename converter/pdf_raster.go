package converter

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

func (c *Converter) pdfToPNG(name string, data []byte, dpi float64) ([]Output, error) {
	if dpi <= 0 {
		dpi = DefaultPDFDPI
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &ImageError{Name: name, Kind: ErrDecode, Err: err}
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, &ImageError{Name: name, Kind: ErrDecode, Err: fmt.Errorf("document has no pages")}
	}

	base := ReplaceExt(name, "")
	outputs := make([]Output, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, &ImageError{Index: n, Name: name, Kind: ErrDecode, Err: fmt.Errorf("render page %d: %w", n+1, err)}
		}
		out, err := c.codecs().Encode(MediaPNG, img, 1)
		if err != nil {
			return nil, &ImageError{Index: n, Name: name, Kind: ErrEncode, Err: err}
		}
		outputs = append(outputs, Output{
			Name:      fmt.Sprintf("%s-%d.png", base, n+1),
			MediaType: MediaPNG,
			Data:      out,
		})
	}
	return outputs, nil
}
