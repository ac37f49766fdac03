package pdf_writer

import (
	"fmt"
	"imgtools/contracts"
	"io"
)

// PageWriter receives one image per page, in order. Every page has the
// size the writer was opened with.
type PageWriter interface {
	WritePage(img *EncodedImage, p Placement) error
	PageCount() int
	Close() error
}

// New opens a fresh writer for one document. Writers are never shared
// between documents.
func New(backend contracts.Backend, dst io.Writer, page PageSize) (PageWriter, error) {
	switch backend {
	case contracts.BackendGofpdf, "":
		return NewGofpdfWriter(dst, page)
	case contracts.BackendStream:
		return NewPDFWriter(dst, page)
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", backend)
	}
}
