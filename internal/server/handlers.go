package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/j-taylor87/dcmpress/archive"
	"github.com/j-taylor87/dcmpress/pipeline"
)

const (
	// uploadField is the multipart field holding the uploaded files.
	uploadField = "files"

	headerSucceeded = "X-Dcmpress-Succeeded"
	headerFailed    = "X-Dcmpress-Failed"
)

type indexPage struct {
	MaxUploadMB int
}

type resultsPage struct {
	Files       []filePanel
	Succeeded   int
	Failed      int
	DownloadURL string
	FileName    string
}

type filePanel struct {
	Name           string
	PatientName    string
	OriginalSyntax string
	NewSyntax      string
	Error          string
	Preview        template.URL
	PreviewWarning string
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index.gohtml", indexPage{MaxUploadMB: s.cfg.Server.MaxUploadMB})
}

func (s *Server) handleDecompress(c echo.Context) error {
	uploads, err := s.readUploads(c)
	if err != nil {
		return err
	}

	res, err := s.pipeline.Process(c.Request().Context(), uploads)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "building archive").SetInternal(err)
	}

	id := uuid.NewString()
	s.downloads.Set(id, res.Archive, cache.DefaultExpiration)
	zerolog.Ctx(c.Request().Context()).Debug().Str("download_id", id).Msg("stored archive")

	page := resultsPage{
		Files:       make([]filePanel, 0, len(res.Outcomes)),
		Succeeded:   res.Succeeded,
		Failed:      res.Failed(),
		DownloadURL: "/download/" + id,
		FileName:    archive.FileName,
	}
	for _, o := range res.Outcomes {
		page.Files = append(page.Files, newFilePanel(o))
	}
	return c.Render(http.StatusOK, "results.gohtml", page)
}

func newFilePanel(o pipeline.Outcome) filePanel {
	panel := filePanel{
		Name:           o.Name,
		PatientName:    o.Before.PatientName,
		OriginalSyntax: o.Before.TransferSyntaxName,
		NewSyntax:      o.After.TransferSyntaxName,
		PreviewWarning: o.PreviewWarning,
	}
	if o.Err != nil {
		panel.Error = o.Err.Error()
	}
	if o.Preview != nil {
		panel.Preview = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(o.Preview))
	}
	return panel
}

func (s *Server) handleDownload(c echo.Context) error {
	data, ok := s.downloads.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "download expired or not found")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", archive.FileName))
	return c.Blob(http.StatusOK, archive.ContentType, data.([]byte))
}

func (s *Server) handleAPIDecompress(c echo.Context) error {
	uploads, err := s.readUploads(c)
	if err != nil {
		return err
	}

	res, err := s.pipeline.Process(c.Request().Context(), uploads)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "building archive").SetInternal(err)
	}

	h := c.Response().Header()
	h.Set(headerSucceeded, strconv.Itoa(res.Succeeded))
	h.Set(headerFailed, strconv.Itoa(res.Failed()))
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", archive.FileName))
	return c.Blob(http.StatusOK, archive.ContentType, res.Archive)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// readUploads reads every file of the upload field in upload order. Files are accepted regardless
// of their extension or content type. A multipart body without files is an empty batch.
func (s *Server) readUploads(c echo.Context) ([]pipeline.Upload, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.Server.MaxUploadBytes())

	form, err := c.MultipartForm()
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d MB", s.cfg.Server.MaxUploadMB)).SetInternal(err)
	case errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		return nil, echo.NewHTTPError(http.StatusBadRequest, "expected a multipart form").SetInternal(err)
	}

	headers := form.File[uploadField]
	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading upload %q: %w", fh.Filename, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}
