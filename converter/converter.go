package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"imgtools/contracts"
	"imgtools/pdf_writer"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type InputImage = contracts.InputImage
type EncodedImage = contracts.EncodedImage

const (
	// DefaultQuality is applied to every image embedded into a PDF, whatever
	// its source format.
	DefaultQuality = 0.92

	MultiImageBaseName = "images"
)

// Document is the result of one assembly. Data is empty when the document
// was written straight to disk by AssembleFile.
type Document struct {
	Name       string
	Page       PageSize
	Placements []Placement
	Data       []byte
}

func (d *Document) PageCount() int {
	return len(d.Placements)
}

// Assembler lays out an ordered list of images, one per page, on pages of
// a fixed size. An Assembler holds no per-document state and may be used
// by several goroutines at once.
type Assembler struct {
	Page    PageSize
	Quality float64
	Backend contracts.Backend
	Codecs  *Codecs
	Logger  *slog.Logger
}

func NewAssembler(page PageSize, backend contracts.Backend, logger *slog.Logger) *Assembler {
	return &Assembler{
		Page:    page,
		Quality: DefaultQuality,
		Backend: backend,
		Codecs:  DefaultCodecs(),
		Logger:  logger,
	}
}

func (a *Assembler) page() PageSize {
	if a.Page.Width <= 0 || a.Page.Height <= 0 {
		return DefaultPage
	}
	return a.Page
}

func (a *Assembler) quality() float64 {
	if a.Quality <= 0 || a.Quality > 1 {
		return DefaultQuality
	}
	return a.Quality
}

func (a *Assembler) codecs() *Codecs {
	if a.Codecs == nil {
		return DefaultCodecs()
	}
	return a.Codecs
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// Assemble builds the whole document in memory.
func (a *Assembler) Assemble(ctx context.Context, images []InputImage) (*Document, error) {
	var buf bytes.Buffer
	placements, err := a.assemble(ctx, images, &buf)
	if err != nil {
		return nil, err
	}
	return &Document{
		Name:       OutputName(images),
		Page:       a.page(),
		Placements: placements,
		Data:       buf.Bytes(),
	}, nil
}

// AssembleFile writes the document to path. The file only appears once the
// document is complete; on failure nothing is left behind.
func (a *Assembler) AssembleFile(ctx context.Context, images []InputImage, path string) (*Document, error) {
	if len(images) == 0 {
		return nil, ErrEmptyInput
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imgtools-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	placements, err := a.assemble(ctx, images, tmp)
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return nil, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("rename %s: %w", path, err)
	}
	return &Document{
		Name:       filepath.Base(path),
		Page:       a.page(),
		Placements: placements,
	}, nil
}

func (a *Assembler) assemble(ctx context.Context, images []InputImage, dst io.Writer) ([]Placement, error) {
	if len(images) == 0 {
		return nil, ErrEmptyInput
	}
	page := a.page()
	writer, err := pdf_writer.New(a.Backend, dst, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	codecs := a.codecs()
	placements := make([]Placement, 0, len(images))
	for i, in := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		encoded, err := a.prepare(codecs, i, in)
		if err != nil {
			return nil, err
		}
		p := Fit(page, float64(encoded.PixelWidth), float64(encoded.PixelHeight))
		if err := writer.WritePage(encoded, p); err != nil {
			return nil, &ImageError{Index: i, Name: in.Name, Kind: ErrEncode, Err: err}
		}
		placements = append(placements, p)
		a.logger().Debug("page placed",
			"page", i+1,
			"image", in.Name,
			"pixels", fmt.Sprintf("%dx%d", encoded.PixelWidth, encoded.PixelHeight),
			"scale", p.Scale)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return placements, nil
}

// prepare decodes one input and re-encodes it as a baseline JPEG. The
// source bytes and the raster are not referenced once it returns.
func (a *Assembler) prepare(codecs *Codecs, i int, in InputImage) (*EncodedImage, error) {
	data, err := in.Bytes()
	if err != nil {
		return nil, &ImageError{Index: i, Name: in.Name, Kind: ErrDecode, Err: err}
	}
	img, err := codecs.Decode(data)
	if err != nil {
		return nil, &ImageError{Index: i, Name: in.Name, Kind: ErrDecode, Err: err}
	}
	jpegData, err := codecs.Encode(MediaJPEG, img, a.quality())
	if err != nil {
		return nil, &ImageError{Index: i, Name: in.Name, Kind: ErrEncode, Err: err}
	}
	bounds := img.Bounds()
	_, gray := img.(*image.Gray)
	return &EncodedImage{
		Data:        jpegData,
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
		Gray:        gray,
	}, nil
}

// OutputName is "<base>.pdf" for a single input and "images.pdf" otherwise.
func OutputName(images []InputImage) string {
	if len(images) == 1 {
		return ReplaceExt(images[0].Name, ".pdf")
	}
	return MultiImageBaseName + ".pdf"
}

// ReplaceExt swaps the last extension of a file's base name for ext.
func ReplaceExt(name, ext string) string {
	base := filepath.Base(filepath.ToSlash(name))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "image"
	}
	return base + ext
}
