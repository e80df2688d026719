// Package dashboard serves a read-only, filterable view of stored headlines
// with CSV and JSON downloads of the current view.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/headlines/archive"
	"github.com/pevans/headlines/headline"
	"github.com/pevans/headlines/store"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Loader reads the full headline table, newest first.
type Loader func(ctx context.Context) ([]headline.Headline, error)

// StoreLoader returns a Loader that opens the database at dbPath, reads it
// and closes it again on every call.
func StoreLoader(dbPath string) Loader {
	return func(ctx context.Context) ([]headline.Headline, error) {
		return store.Load(ctx, dbPath)
	}
}

// Server is the dashboard HTTP server.
type Server struct {
	load   Loader
	logger *slog.Logger
	page   *template.Template
}

// NewServer creates a dashboard server reading through load.
func NewServer(load Loader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		load:   load,
		logger: logger,
		page:   template.Must(template.ParseFS(templateFS, "templates/*.tmpl")),
	}
}

// ListHeadlinesResponse represents the response for GET /api/v1/headlines.
type ListHeadlinesResponse struct {
	Headlines []headline.Headline `json:"headlines"`
	Total     int                 `json:"total"`
}

// pageData is what the index template renders.
type pageData struct {
	Search      string
	Date        string
	ExportQuery string
	Headlines   []headline.Headline
	Error       string
}

// SetupRouter configures the Gin router with the dashboard routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.SetHTMLTemplate(s.page)

	router.GET("/", s.HandleIndex)
	router.GET("/export.csv", s.HandleExportCSV)
	router.GET("/export.json", s.HandleExportJSON)
	router.GET("/api/v1/headlines", s.HandleListHeadlines)

	return router
}

// requestLogger logs every request through the server's logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// filterFromQuery reads the search and date filters from the query string.
func filterFromQuery(c *gin.Context) (Filter, error) {
	date, err := ParseDate(c.Query("date"))
	if err != nil {
		return Filter{}, err
	}
	return Filter{Search: c.Query("search"), Date: date}, nil
}

// view loads the table and applies the request's filters.
func (s *Server) view(c *gin.Context) (Filter, []headline.Headline, error) {
	filter, err := filterFromQuery(c)
	if err != nil {
		return Filter{}, nil, err
	}

	rows, err := s.load(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load headlines", "err", err)
		return filter, nil, err
	}

	return filter, filter.Apply(rows), nil
}

// HandleIndex handles GET /, the dashboard page.
func (s *Server) HandleIndex(c *gin.Context) {
	filter, rows, err := s.view(c)
	data := pageData{
		Search:      c.Query("search"),
		Date:        c.Query("date"),
		ExportQuery: exportQuery(filter),
		Headlines:   rows,
	}

	switch {
	case errors.Is(err, ErrInvalidDate):
		data.Error = err.Error()
		c.HTML(http.StatusBadRequest, "index.html.tmpl", data)
	case err != nil:
		data.Error = "Failed to load headlines: " + err.Error()
		c.HTML(http.StatusInternalServerError, "index.html.tmpl", data)
	default:
		c.HTML(http.StatusOK, "index.html.tmpl", data)
	}
}

// HandleExportCSV handles GET /export.csv, the filtered view as CSV.
func (s *Server) HandleExportCSV(c *gin.Context) {
	_, rows, err := s.view(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := archive.EncodeCSV(&buf, rows); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to encode CSV"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="headlines.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// HandleExportJSON handles GET /export.json, the filtered view as indented
// JSON.
func (s *Server) HandleExportJSON(c *gin.Context) {
	_, rows, err := s.view(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := archive.EncodeJSON(&buf, rows); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to encode JSON"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="headlines.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// HandleListHeadlines handles GET /api/v1/headlines.
func (s *Server) HandleListHeadlines(c *gin.Context) {
	_, rows, err := s.view(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListHeadlinesResponse{
		Headlines: rows,
		Total:     len(rows),
	})
}

// writeError maps view errors to JSON error responses.
func (s *Server) writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidDate) {
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to load headlines: "+err.Error()))
}

// exportQuery builds the query string that carries filter to the export
// links.
func exportQuery(filter Filter) string {
	values := url.Values{}
	if filter.Search != "" {
		values.Set("search", filter.Search)
	}
	if filter.Date != "" {
		values.Set("date", filter.Date)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
