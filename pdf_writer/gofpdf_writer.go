package pdf_writer

import (
	"bytes"
	"fmt"
	"imgtools/contracts"
	"io"

	"github.com/phpdave11/gofpdf"
)

// GofpdfWriter builds the whole document in memory and writes it to dst on
// Close. gofpdf has no px unit, the document counts in points.
type GofpdfWriter struct {
	pdf   *gofpdf.Fpdf
	dst   io.Writer
	pages int
}

func NewGofpdfWriter(dst io.Writer, page PageSize) (*GofpdfWriter, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("invalid page size %.2fx%.2f", page.Width, page.Height)
	}
	width, height := page.Points()
	orientation := "P"
	size := gofpdf.SizeType{Wd: width, Ht: height}
	if width > height {
		orientation = "L"
		size = gofpdf.SizeType{Wd: height, Ht: width}
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("imgtools", true)
	if pdf.Err() {
		return nil, fmt.Errorf("error initializing gofpdf: %w", pdf.Error())
	}
	return &GofpdfWriter{pdf: pdf, dst: dst}, nil
}

func (gw *GofpdfWriter) PageCount() int {
	return gw.pages
}

func (gw *GofpdfWriter) WritePage(img *EncodedImage, p Placement) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("empty image data for page %d", gw.pages+1)
	}
	gw.pdf.AddPage()

	imageID := fmt.Sprintf("img_%d", gw.pages)
	options := gofpdf.ImageOptions{
		ImageType: "JPG",
		ReadDpi:   false,
	}
	gw.pdf.RegisterImageOptionsReader(imageID, options, bytes.NewReader(img.Data))
	const k = contracts.PointsPerPixel
	gw.pdf.ImageOptions(imageID, p.X*k, p.Y*k, p.Width*k, p.Height*k, false, options, 0, "")
	if gw.pdf.Err() {
		return fmt.Errorf("error placing %s: %w", imageID, gw.pdf.Error())
	}
	gw.pages++
	return nil
}

func (gw *GofpdfWriter) Close() error {
	if gw.pages == 0 {
		gw.pdf.Close()
		return fmt.Errorf("document has no pages")
	}
	if err := gw.pdf.Output(gw.dst); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}
