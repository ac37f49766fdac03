package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"imgtools/contracts"
	"imgtools/converter"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

type part struct {
	field, name, mediaType string
	data                   []byte
}

func multipartBody(t *testing.T, parts []part, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		if p.mediaType != "" {
			h.Set("Content-Type", p.mediaType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func newTestServer() *Server {
	return New(
		converter.NewAssembler(contracts.PageA4, contracts.BackendStream, nil),
		converter.NewConverter(nil, nil),
		converter.ToolOptions{Scale: converter.DefaultSVGScale, DPI: 72},
		"8M",
		nil,
	)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthAndTools(t *testing.T) {
	s := newTestServer()

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tools []converter.Tool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	assert.Len(t, tools, len(converter.Tools))
}

func TestImageToPDF(t *testing.T) {
	s := newTestServer()
	body, ct := multipartBody(t, []part{
		{"files", "one.png", "image/png", testPNG(t, 80, 40)},
		{"files", "notes.txt", "text/plain", []byte("skip me")},
		{"files", "two.png", "", testPNG(t, 40, 80)},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, converter.MediaPDF, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename=images.pdf`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "2", rec.Header().Get("X-Page-Count"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestImageToPDFSingleName(t *testing.T) {
	s := newTestServer()
	body, ct := multipartBody(t, []part{{"files", "cat.photo.png", "image/png", testPNG(t, 8, 8)}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=cat.photo.pdf`, rec.Header().Get(echo.HeaderContentDisposition))
}

func TestAttachmentFilenameEncoding(t *testing.T) {
	s := newTestServer()
	for _, tc := range []struct{ upload, want string }{
		{"café.png", "café.pdf"},
		{"two words.png", "two words.pdf"},
	} {
		body, ct := multipartBody(t, []part{{"files", tc.upload, "image/png", testPNG(t, 8, 8)}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		disposition, params, err := mime.ParseMediaType(rec.Header().Get(echo.HeaderContentDisposition))
		require.NoError(t, err, tc.upload)
		assert.Equal(t, "attachment", disposition)
		assert.Equal(t, tc.want, params["filename"])
	}
}

func TestImageToPDFErrors(t *testing.T) {
	s := newTestServer()

	t.Run("no images", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"files", "a.txt", "text/plain", []byte("x")}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "no images")
	})

	t.Run("corrupt image", func(t *testing.T) {
		body, ct := multipartBody(t, []part{
			{"files", "ok.png", "image/png", testPNG(t, 4, 4)},
			{"files", "bad.png", "image/png", []byte("garbage")},
		}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "bad.png")
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", bytes.NewBufferString("{}"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestConvertFile(t *testing.T) {
	s := newTestServer()

	t.Run("png to jpg", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"file", "shot.png", "image/png", testPNG(t, 10, 10)}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/convert/png-to-jpg", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, converter.MediaJPEG, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, `attachment; filename=shot.jpg`, rec.Header().Get(echo.HeaderContentDisposition))
	})

	t.Run("png to webp", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"file", "shot.png", "image/png", testPNG(t, 12, 6)}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/convert/png-to-webp", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, converter.MediaWEBP, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, `attachment; filename=shot.webp`, rec.Header().Get(echo.HeaderContentDisposition))
		cfg, err := webp.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 12, cfg.Width)
		assert.Equal(t, 6, cfg.Height)
	})

	t.Run("svg with scale", func(t *testing.T) {
		svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="5" height="5" viewBox="0 0 5 5"><rect width="5" height="5" fill="blue"/></svg>`)
		body, ct := multipartBody(t, []part{{"file", "dot.svg", "", svg}}, map[string]string{"scale": "3"})
		req := httptest.NewRequest(http.MethodPost, "/api/convert/svg-to-png", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 15, cfg.Width)
	})

	t.Run("pdf to png zips pages", func(t *testing.T) {
		doc, err := s.Assembler.Assemble(t.Context(), []contracts.InputImage{
			{Name: "a.png", MediaType: converter.MediaPNG, Data: testPNG(t, 10, 10)},
			{Name: "b.png", MediaType: converter.MediaPNG, Data: testPNG(t, 10, 10)},
		})
		require.NoError(t, err)
		body, ct := multipartBody(t, []part{{"file", "scan.pdf", "application/pdf", doc.Data}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/convert/pdf-to-png", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, converter.MediaZIP, rec.Header().Get(echo.HeaderContentType))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 2)
		assert.Equal(t, "scan-1.png", zr.File[0].Name)
		assert.Equal(t, "scan-2.png", zr.File[1].Name)
	})

	t.Run("wrong input type", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"file", "a.jpg", "image/jpeg", []byte{0xFF, 0xD8}}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/convert/png-to-jpg", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("html without browser configured", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"file", "a.html", "text/html", []byte("<p>x</p>")}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/convert/html-to-pdf", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("unknown tool", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"file", "a.png", "image/png", testPNG(t, 2, 2)}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/convert/png-to-gif", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad dpi", func(t *testing.T) {
		body, ct := multipartBody(t, []part{{"file", "a.pdf", "application/pdf", []byte("%PDF-")}}, map[string]string{"dpi": "-5"})
		req := httptest.NewRequest(http.MethodPost, "/api/convert/pdf-to-png", body)
		req.Header.Set(echo.HeaderContentType, ct)
		rec := do(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid dpi", errorMessage(t, rec))
	})
}

func TestBodyLimit(t *testing.T) {
	s := New(
		converter.NewAssembler(contracts.PageA4, contracts.BackendStream, nil),
		converter.NewConverter(nil, nil),
		converter.ToolOptions{},
		"1K",
		nil,
	)
	body, ct := multipartBody(t, []part{{"files", "big.png", "image/png", bytes.Repeat([]byte{1}, 4096)}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/image-to-pdf", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := do(s, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(converter.ErrEmptyInput))
	assert.Equal(t, http.StatusBadRequest, statusFor(&converter.ImageError{Kind: converter.ErrDecode, Err: assert.AnError}))
	assert.Equal(t, http.StatusNotImplemented, statusFor(converter.ErrBackendUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
