package converter

import (
	"context"
	"fmt"
	"imgtools/contracts"
	"log/slog"
	"slices"
	"strings"
)

type Output = contracts.Output

const (
	ToolImageToPDF = "image-to-pdf"
	ToolPNGToJPG   = "png-to-jpg"
	ToolPNGToWEBP  = "png-to-webp"
	ToolWEBPToPNG  = "webp-to-png"
	ToolWEBPToJPG  = "webp-to-jpg"
	ToolSVGToPNG   = "svg-to-png"
	ToolHTMLToPDF  = "html-to-pdf"
	ToolPDFToPNG   = "pdf-to-png"
)

const (
	JPEGQuality = 0.92
	WEBPQuality = 0.90

	DefaultSVGScale = 2.0
	MaxSVGScale     = 4.0
	DefaultPDFDPI   = 150.0
)

// Tool describes one conversion page: what it accepts and what it hands
// back.
type Tool struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Accepts  []string `json:"accepts"`
	Produces string   `json:"produces"`
	Multiple bool     `json:"multiple"`
}

var Tools = []Tool{
	{Name: ToolImageToPDF, Title: "Image to PDF", Accepts: []string{MediaJPEG, MediaPNG, MediaWEBP, MediaGIF}, Produces: MediaPDF, Multiple: true},
	{Name: ToolPNGToJPG, Title: "PNG to JPG", Accepts: []string{MediaPNG}, Produces: MediaJPEG},
	{Name: ToolPNGToWEBP, Title: "PNG to WEBP", Accepts: []string{MediaPNG}, Produces: MediaWEBP},
	{Name: ToolWEBPToPNG, Title: "WEBP to PNG", Accepts: []string{MediaWEBP}, Produces: MediaPNG},
	{Name: ToolWEBPToJPG, Title: "WEBP to JPG", Accepts: []string{MediaWEBP}, Produces: MediaJPEG},
	{Name: ToolSVGToPNG, Title: "SVG to PNG", Accepts: []string{MediaSVG}, Produces: MediaPNG},
	{Name: ToolHTMLToPDF, Title: "HTML to PDF", Accepts: []string{MediaHTML}, Produces: MediaPDF},
	{Name: ToolPDFToPNG, Title: "PDF to PNG", Accepts: []string{MediaPDF}, Produces: MediaPNG},
}

func LookupTool(name string) (Tool, bool) {
	for _, t := range Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func (t Tool) Accept(mediaType string) bool {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return slices.Contains(t.Accepts, strings.TrimSpace(strings.ToLower(mediaType)))
}

type ToolOptions struct {
	Scale float64
	DPI   float64
}

// Converter runs the single-file tools. Every call is independent.
type Converter struct {
	Codecs *Codecs
	HTML   *HTMLPrinter
	Logger *slog.Logger
}

func NewConverter(html *HTMLPrinter, logger *slog.Logger) *Converter {
	return &Converter{
		Codecs: DefaultCodecs(),
		HTML:   html,
		Logger: logger,
	}
}

func (c *Converter) codecs() *Codecs {
	if c.Codecs == nil {
		return DefaultCodecs()
	}
	return c.Codecs
}

// Convert runs tool on one input. Only pdf-to-png can yield several
// outputs, one per page.
func (c *Converter) Convert(ctx context.Context, toolName string, in InputImage, opts ToolOptions) ([]Output, error) {
	tool, ok := LookupTool(toolName)
	if !ok || tool.Name == ToolImageToPDF {
		return nil, fmt.Errorf("%w: unknown tool %q", ErrUnsupportedInput, toolName)
	}
	if !tool.Accept(in.MediaType) {
		return nil, fmt.Errorf("%w: %s expects %s, got %q", ErrUnsupportedInput,
			tool.Title, strings.Join(tool.Accepts, ", "), in.MediaType)
	}
	data, err := in.Bytes()
	if err != nil {
		return nil, err
	}

	if c.Logger != nil {
		c.Logger.Debug("converting", "tool", tool.Name, "input", in.Name, "bytes", len(data))
	}

	switch tool.Name {
	case ToolPNGToJPG, ToolWEBPToJPG:
		return c.reencode(in.Name, data, MediaJPEG, ".jpg", JPEGQuality)
	case ToolPNGToWEBP:
		return c.reencode(in.Name, data, MediaWEBP, ".webp", WEBPQuality)
	case ToolWEBPToPNG:
		return c.reencode(in.Name, data, MediaPNG, ".png", 1)
	case ToolSVGToPNG:
		return c.svgToPNG(in.Name, data, opts.Scale)
	case ToolHTMLToPDF:
		if c.HTML == nil {
			return nil, fmt.Errorf("%w: html printer not configured", ErrBackendUnavailable)
		}
		pdf, err := c.HTML.Print(ctx, data)
		if err != nil {
			return nil, err
		}
		return []Output{{Name: ReplaceExt(in.Name, ".pdf"), MediaType: MediaPDF, Data: pdf}}, nil
	case ToolPDFToPNG:
		return c.pdfToPNG(in.Name, data, opts.DPI)
	}
	return nil, fmt.Errorf("%w: unhandled tool %q", ErrUnsupportedInput, tool.Name)
}

func (c *Converter) reencode(name string, data []byte, target, ext string, quality float64) ([]Output, error) {
	codecs := c.codecs()
	img, err := codecs.Decode(data)
	if err != nil {
		return nil, &ImageError{Name: name, Kind: ErrDecode, Err: err}
	}
	out, err := codecs.Encode(target, img, quality)
	if err != nil {
		return nil, &ImageError{Name: name, Kind: ErrEncode, Err: err}
	}
	return []Output{{Name: ReplaceExt(name, ext), MediaType: target, Data: out}}, nil
}
