package server

import (
	"archive/zip"
	"bytes"
	"fmt"
	"imgtools/contracts"
	"imgtools/converter"
	"imgtools/files_manager"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (s *Server) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, converter.Tools)
}

// ImageToPDF assembles every image part of the "files" field, in upload
// order, into one PDF. Parts that are not images are dropped.
func (s *Server) ImageToPDF(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart form")
	}
	images := make([]contracts.InputImage, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		in, err := readUpload(fh)
		if err != nil {
			return err
		}
		if !files_manager.IsImage(in.MediaType) {
			s.Logger.Debug("dropping non-image upload", "name", in.Name, "type", in.MediaType)
			continue
		}
		images = append(images, in)
	}

	id := c.Response().Header().Get(echo.HeaderXRequestID)
	s.Logger.Info("image-to-pdf", "id", id, "status", contracts.StatusConverting, "images", len(images))
	doc, err := s.Assembler.Assemble(c.Request().Context(), images)
	if err != nil {
		s.Logger.Warn("image-to-pdf", "id", id, "status", contracts.StatusError, "error", err)
		return err
	}
	s.Logger.Info("image-to-pdf", "id", id, "status", contracts.StatusDone, "pages", doc.PageCount(), "name", doc.Name)

	c.Response().Header().Set("X-Page-Count", strconv.Itoa(doc.PageCount()))
	return attachment(c, doc.Name, converter.MediaPDF, doc.Data)
}

// ConvertFile runs a single-file tool on the "file" field.
func (s *Server) ConvertFile(c echo.Context) error {
	toolName := c.Param("tool")
	if _, ok := converter.LookupTool(toolName); !ok || toolName == converter.ToolImageToPDF {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown tool %q", toolName))
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	in, err := readUpload(fh)
	if err != nil {
		return err
	}

	opts := s.Defaults
	if v := c.FormValue("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid scale")
		}
		opts.Scale = scale
	}
	if v := c.FormValue("dpi"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil || dpi <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid dpi")
		}
		opts.DPI = dpi
	}

	outputs, err := s.Converter.Convert(c.Request().Context(), toolName, in, opts)
	if err != nil {
		return err
	}
	if len(outputs) == 1 {
		return attachment(c, outputs[0].Name, outputs[0].MediaType, outputs[0].Data)
	}
	archive, err := zipOutputs(outputs)
	if err != nil {
		return err
	}
	return attachment(c, converter.ReplaceExt(in.Name, ".zip"), converter.MediaZIP, archive)
}

func attachment(c echo.Context, name, mediaType string, data []byte) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, mediaType, data)
}

// readUpload trusts the declared part type unless it is missing or generic.
func readUpload(fh *multipart.FileHeader) (contracts.InputImage, error) {
	f, err := fh.Open()
	if err != nil {
		return contracts.InputImage{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return contracts.InputImage{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	mediaType := fh.Header.Get(echo.HeaderContentType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = files_manager.DetectMediaType(fh.Filename, data)
	}
	return contracts.InputImage{
		Name:      fh.Filename,
		MediaType: mediaType,
		Data:      data,
	}, nil
}

func zipOutputs(outputs []contracts.Output) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, out := range outputs {
		w, err := zw.Create(out.Name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(out.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
