package converter

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="20" viewBox="0 0 10 20">
<rect x="0" y="0" width="10" height="20" fill="#ff0000"/>
</svg>`

func TestLookupTool(t *testing.T) {
	for _, tool := range Tools {
		got, ok := LookupTool(tool.Name)
		require.True(t, ok, tool.Name)
		assert.Equal(t, tool, got)
	}
	_, ok := LookupTool("gif-to-avi")
	assert.False(t, ok)
}

func TestToolAccept(t *testing.T) {
	tool, _ := LookupTool(ToolPNGToJPG)
	assert.True(t, tool.Accept("image/png"))
	assert.True(t, tool.Accept("IMAGE/PNG; charset=binary"))
	assert.False(t, tool.Accept("image/jpeg"))

	pdf, _ := LookupTool(ToolImageToPDF)
	assert.True(t, pdf.Multiple)
	assert.True(t, pdf.Accept(MediaWEBP))
}

func TestConvertReencode(t *testing.T) {
	c := NewConverter(nil, nil)
	ctx := context.Background()

	out, err := c.Convert(ctx, ToolPNGToJPG, InputImage{Name: "shot.png", MediaType: MediaPNG, Data: pngBytes(t, 32, 16)}, ToolOptions{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "shot.jpg", out[0].Name)
	assert.Equal(t, MediaJPEG, out[0].MediaType)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 16, cfg.Height)
}

func TestConvertFromWEBP(t *testing.T) {
	// the stub keeps this independent of the webp encoder
	c := &Converter{Codecs: NewCodecs(stubDecoder{img: solidImage(12, 6, image.Black)}, map[string]Encoder{
		MediaJPEG: jpegEncoder{},
		MediaPNG:  pngEncoder{},
	})}
	in := InputImage{Name: "pic.webp", MediaType: MediaWEBP, Data: []byte("RIFF")}

	out, err := c.Convert(context.Background(), ToolWEBPToPNG, in, ToolOptions{})
	require.NoError(t, err)
	assert.Equal(t, "pic.png", out[0].Name)
	cfg, err := png.DecodeConfig(bytes.NewReader(out[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Width)

	out, err = c.Convert(context.Background(), ToolWEBPToJPG, in, ToolOptions{})
	require.NoError(t, err)
	assert.Equal(t, "pic.jpg", out[0].Name)
	assert.Equal(t, MediaJPEG, out[0].MediaType)
}

func TestConvertToWEBP(t *testing.T) {
	c := NewConverter(nil, nil)
	out, err := c.Convert(context.Background(), ToolPNGToWEBP, InputImage{Name: "tile.png", MediaType: MediaPNG, Data: pngBytes(t, 10, 10)}, ToolOptions{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "tile.webp", out[0].Name)
	assert.Equal(t, MediaWEBP, out[0].MediaType)

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(out[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 10, cfg.Height)

	// and back through the regular decoder
	back, err := c.Convert(context.Background(), ToolWEBPToPNG, InputImage{Name: "tile.webp", MediaType: MediaWEBP, Data: out[0].Data}, ToolOptions{})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(back[0].Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), img.Bounds())
}

func TestConvertWithoutEncoder(t *testing.T) {
	c := &Converter{Codecs: NewCodecs(&stdDecoder{}, map[string]Encoder{MediaPNG: pngEncoder{}})}
	_, err := c.Convert(context.Background(), ToolPNGToWEBP, InputImage{Name: "a.png", MediaType: MediaPNG, Data: pngBytes(t, 4, 4)}, ToolOptions{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestConvertRejectsWrongInput(t *testing.T) {
	c := NewConverter(nil, nil)
	ctx := context.Background()

	_, err := c.Convert(ctx, ToolPNGToJPG, InputImage{Name: "a.jpg", MediaType: MediaJPEG, Data: jpegBytes(t, 4, 4)}, ToolOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = c.Convert(ctx, "bmp-to-ico", InputImage{Name: "a.bmp", MediaType: MediaBMP}, ToolOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = c.Convert(ctx, ToolImageToPDF, InputImage{Name: "a.png", MediaType: MediaPNG}, ToolOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = c.Convert(ctx, ToolPNGToJPG, InputImage{Name: "a.png", MediaType: MediaPNG, Data: []byte("nope")}, ToolOptions{})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestSVGToPNG(t *testing.T) {
	c := NewConverter(nil, nil)
	in := InputImage{Name: "logo.svg", MediaType: MediaSVG, Data: []byte(testSVG)}

	for _, tc := range []struct {
		scale float64
		w, h  int
	}{
		{0, 20, 40},
		{1, 10, 20},
		{1.5, 15, 30},
		{4, 40, 80},
	} {
		out, err := c.Convert(context.Background(), ToolSVGToPNG, in, ToolOptions{Scale: tc.scale})
		require.NoError(t, err, "scale %v", tc.scale)
		require.Len(t, out, 1)
		assert.Equal(t, "logo.png", out[0].Name)

		img, err := png.Decode(bytes.NewReader(out[0].Data))
		require.NoError(t, err)
		assert.Equal(t, tc.w, img.Bounds().Dx(), "scale %v", tc.scale)
		assert.Equal(t, tc.h, img.Bounds().Dy(), "scale %v", tc.scale)

		r, g, b, a := img.At(tc.w/2, tc.h/2).RGBA()
		assert.Equal(t, uint32(0xffff), a)
		assert.Greater(t, r, g+b)
	}

	for _, scale := range []float64{0.5, 4.5, -1} {
		_, err := c.Convert(context.Background(), ToolSVGToPNG, in, ToolOptions{Scale: scale})
		assert.ErrorIs(t, err, ErrUnsupportedInput, "scale %v", scale)
	}
}

func TestRasterizeSVGWithoutSize(t *testing.T) {
	_, err := RasterizeSVG([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 1)
	assert.Error(t, err)
}

func TestRasterizeSVGNaturalSize(t *testing.T) {
	const body = `<rect x="0" y="0" width="10" height="5" fill="#0000ff"/></svg>`
	for _, tc := range []struct {
		name  string
		root  string
		scale float64
		w, h  int
	}{
		{"attributes win over viewBox", `width="100" height="50" viewBox="0 0 10 5"`, 2, 200, 100},
		{"px units", `width="100px" height="50px" viewBox="0 0 10 5"`, 1, 100, 50},
		{"width only", `width="40" viewBox="0 0 10 5"`, 1, 40, 20},
		{"height only", `height="30" viewBox="0 0 10 5"`, 1, 60, 30},
		{"percent falls back", `width="100%" height="100%" viewBox="0 0 10 5"`, 2, 20, 10},
		{"viewBox only", `viewBox="0 0 10 5"`, 3, 30, 15},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svg := `<svg xmlns="http://www.w3.org/2000/svg" ` + tc.root + `>` + body
			img, err := RasterizeSVG([]byte(svg), tc.scale)
			require.NoError(t, err)
			assert.Equal(t, tc.w, img.Bounds().Dx())
			assert.Equal(t, tc.h, img.Bounds().Dy())

			// the viewBox is stretched over the whole target
			_, _, b, a := img.At(tc.w-1, tc.h-1).RGBA()
			assert.Equal(t, uint32(0xffff), a)
			assert.Equal(t, uint32(0xffff), b)
		})
	}
}

func TestHTMLToPDF(t *testing.T) {
	t.Run("no printer", func(t *testing.T) {
		c := NewConverter(nil, nil)
		_, err := c.Convert(context.Background(), ToolHTMLToPDF, InputImage{Name: "a.html", MediaType: MediaHTML, Data: []byte("<p>hi</p>")}, ToolOptions{})
		assert.ErrorIs(t, err, ErrBackendUnavailable)
	})

	t.Run("headless chrome", func(t *testing.T) {
		if _, err := FindBrowser(); err != nil {
			t.Skip("no Chrome or Chromium on PATH")
		}
		c := NewConverter(&HTMLPrinter{Page: DefaultPage}, nil)
		out, err := c.Convert(context.Background(), ToolHTMLToPDF, InputImage{
			Name:      "report.html",
			MediaType: MediaHTML,
			Data:      []byte("<html><body><h1>Report</h1></body></html>"),
		}, ToolOptions{})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "report.pdf", out[0].Name)
		assert.True(t, bytes.HasPrefix(out[0].Data, []byte("%PDF-")))
	})
}
