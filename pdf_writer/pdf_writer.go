package pdf_writer

import (
	"bufio"
	"fmt"
	"imgtools/contracts"
	"io"
)

type EncodedImage = contracts.EncodedImage
type Placement = contracts.Placement
type PageSize = contracts.PageSize

// PDFWriter streams a PDF to dst: every image XObject is written as soon as
// its page is placed, the page tree is written by Close.
type PDFWriter struct {
	objects    []int64
	imageInfos []ImageInfo
	bw         *bufio.Writer
	cw         *countingWriter
	objNum     int
	page       PageSize

	pagesObjID   int64
	pageIDs      []int64
	catalogObjID int64
}

type ImageInfo struct {
	id        int64
	placement Placement
}

type countingWriter struct {
	w      io.Writer
	offset int64
}

func NewPDFWriter(dst io.Writer, page PageSize) (*PDFWriter, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("invalid page size %.2fx%.2f", page.Width, page.Height)
	}
	cw := &countingWriter{
		w: dst,
	}
	pw := &PDFWriter{
		cw:   cw,
		bw:   bufio.NewWriterSize(cw, 256*1024),
		page: page,
	}

	if _, err := pw.bw.WriteString("%PDF-1.7\n%\xFF\xFF\xFF\xFF\n"); err != nil {
		return nil, fmt.Errorf("error writing PDF header: %w", err)
	}
	return pw, nil
}

func (cw *countingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	if err == nil {
		cw.offset += int64(n)
	}
	return n, err
}

func (pw *PDFWriter) getOffset() int64 {
	return pw.cw.offset + int64(pw.bw.Buffered())
}

func (pw *PDFWriter) newObject() int64 {
	pw.objNum++
	pw.objects = append(pw.objects, pw.getOffset())
	pw.bw.WriteString(fmt.Sprintf("%d 0 obj\n", pw.objNum))
	return int64(pw.objNum)
}

func (pw *PDFWriter) PageCount() int {
	return len(pw.imageInfos)
}

// WritePage starts a new page and places img on it. The image bytes are
// handed to the underlying writer before WritePage returns.
func (pw *PDFWriter) WritePage(img *EncodedImage, p Placement) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("empty image data for page %d", len(pw.imageInfos)+1)
	}
	if err := pw.writeJPEGImage(img.PixelWidth, img.PixelHeight, img.Gray, img.Data, p); err != nil {
		return fmt.Errorf("error writing JPEG image: %w", err)
	}
	if err := pw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing image object: %w", err)
	}
	return nil
}

func (pw *PDFWriter) writeJPEGImage(width int, height int, gray bool, data []byte, p Placement) error {
	imgID := pw.newObject()
	pw.imageInfos = append(pw.imageInfos, ImageInfo{
		id:        imgID,
		placement: p,
	})
	colorSpace := "/DeviceRGB"
	if gray {
		colorSpace = "/DeviceGray"
	}
	pw.bw.WriteString("<<\n/Type /XObject\n/Subtype /Image\n")
	pw.bw.WriteString(fmt.Sprintf("/Width %d\n/Height %d\n", width, height))
	pw.bw.WriteString(fmt.Sprintf("/ColorSpace %s\n/BitsPerComponent 8\n", colorSpace))
	pw.bw.WriteString("/Filter /DCTDecode\n")

	pw.bw.WriteString(fmt.Sprintf("/Length %d\n", len(data)))
	pw.bw.WriteString(">>\nstream\n")
	if _, err := pw.bw.Write(data); err != nil {
		return err
	}
	_, err := pw.bw.WriteString("\nendstream\nendobj\n")
	return err
}

// writeContent draws the image XObject at its placement. PDF user space has
// its origin in the lower-left corner and counts in points, placements are
// top-left based and count in px.
func (pw *PDFWriter) writeContent(imgName string, p Placement) int64 {
	const k = contracts.PointsPerPixel
	bottom := pw.page.Height - p.Y - p.Height
	content := fmt.Sprintf(
		"q\n%.4f 0 0 %.4f %.4f %.4f cm\n/%s Do\nQ\n",
		p.Width*k, p.Height*k, p.X*k, bottom*k, imgName,
	)
	objID := pw.newObject()
	pw.bw.WriteString("<<\n")
	contentBytes := []byte(content)
	pw.bw.WriteString(fmt.Sprintf("/Length %d\n", len(contentBytes)))
	pw.bw.WriteString(">>\n")
	pw.bw.WriteString("stream\n")
	pw.bw.Write(contentBytes)
	pw.bw.WriteString("endstream\nendobj\n")
	return objID
}

func (pw *PDFWriter) writePage(imgName string,
	imgObjID int64,
	contentID int64) int64 {
	objID := pw.newObject()
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString("/Type /Page\n")
	pw.bw.WriteString(fmt.Sprintf("/Parent %d 0 R\n", pw.pagesObjID))
	width, height := pw.page.Points()
	pw.bw.WriteString(fmt.Sprintf("/MediaBox [0 0 %.2f %.2f]\n", width, height))
	pw.bw.WriteString(fmt.Sprintf("/Resources << /XObject << /%s %d 0 R >> >>\n", imgName, imgObjID))
	pw.bw.WriteString(fmt.Sprintf("/Contents %d 0 R\n", contentID))
	pw.bw.WriteString(">>\nendobj\n")
	return objID
}

func (pw *PDFWriter) createDocumentStructure() error {
	if err := pw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing buffer before creating structure: %w", err)
	}

	// reserved now, written once the kids are known
	pw.objNum++
	pw.objects = append(pw.objects, 0)
	pw.pagesObjID = int64(pw.objNum)

	for i, info := range pw.imageInfos {
		imgName := fmt.Sprintf("img_%d", i)
		contentID := pw.writeContent(imgName, info.placement)
		pageID := pw.writePage(imgName, info.id, contentID)
		pw.pageIDs = append(pw.pageIDs, pageID)
	}

	pw.objects[pw.pagesObjID-1] = pw.getOffset()

	pw.bw.WriteString(fmt.Sprintf("%d 0 obj\n", pw.pagesObjID))
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString("/Type /Pages\n")
	pw.bw.WriteString(fmt.Sprintf("/Count %d\n", len(pw.pageIDs)))
	pw.bw.WriteString("/Kids [\n")
	for _, id := range pw.pageIDs {
		pw.bw.WriteString(fmt.Sprintf("%d 0 R ", id))
	}
	pw.bw.WriteString("]\n>>\nendobj\n")

	pw.catalogObjID = pw.newObject()
	pw.bw.WriteString("<<\n")
	pw.bw.WriteString(fmt.Sprintf("/Type /Catalog\n/Pages %d 0 R\n", pw.pagesObjID))
	pw.bw.WriteString(">>\nendobj\n")

	if err := pw.bw.Flush(); err != nil {
		return fmt.Errorf("error flushing buffer after creating structure: %w", err)
	}

	return nil
}

// Close writes the page tree, the cross-reference table and the trailer.
func (pw *PDFWriter) Close() error {
	if len(pw.imageInfos) == 0 {
		return fmt.Errorf("document has no pages")
	}

	if err := pw.createDocumentStructure(); err != nil {
		return fmt.Errorf("failed to create document structure before finishing: %w", err)
	}

	startXref := pw.cw.offset
	total := len(pw.objects) + 1

	if _, err := fmt.Fprintf(pw.cw.w, "xref\n0 %d\n", total); err != nil {
		return fmt.Errorf("error writing xref header: %w", err)
	}
	if _, err := fmt.Fprintf(pw.cw.w, "%010d %05d f \n", 0, 65535); err != nil {
		return fmt.Errorf("error writing free object xref entry: %w", err)
	}
	for _, off := range pw.objects {
		if _, err := fmt.Fprintf(pw.cw.w, "%010d %05d n \n", off, 0); err != nil {
			return fmt.Errorf("error writing object xref entry: %w", err)
		}
	}

	if _, err := fmt.Fprintf(pw.cw.w,
		"trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		total, pw.catalogObjID, startXref,
	); err != nil {
		return fmt.Errorf("error writing trailer and startxref: %w", err)
	}

	return nil
}
