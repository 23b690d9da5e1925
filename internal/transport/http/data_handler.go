package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"chavostd/internal/dataset"
	apierrors "chavostd/internal/errors"
	"chavostd/internal/exporter"
	"chavostd/internal/middleware"
	"chavostd/pkg/contracts/domain"
)

// DataHandler serves the dataset API with RFC 7807 error responses.
type DataHandler struct {
	service      DataServiceInterface
	csvWriter    *exporter.CSVWriter
	xlsxWriter   *exporter.XLSXWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
}

// NewDataHandler creates a data handler.
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUpload int64) *DataHandler {
	return &DataHandler{
		service:      service,
		csvWriter:    exporter.NewCSVWriter(logger),
		xlsxWriter:   exporter.NewXLSXWriter(logger),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
	}
}

// Routes returns the /api/data router.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/records", h.GetRecords)
	r.Post("/records", h.AppendRecords)
	r.Get("/summary", h.GetSummary)
	r.Get("/filters", h.GetFilters)
	r.Get("/clients/resolve", h.ResolveClient)
	r.Get("/products/history", h.GetProductHistory)
	r.Post("/upload", h.Upload)
	r.Post("/cache/invalidate", h.InvalidateCache)
	r.Get("/export", h.ExportCSV)
	r.Get("/export/xlsx", h.ExportXLSX)

	return r
}

// filterFromQuery builds the record filter from query parameters. Multi-value
// selectors accept repeated parameters and comma-separated lists.
func filterFromQuery(r *http.Request) (dataset.Filter, error) {
	q := r.URL.Query()

	years, err := parseIntList(q["year"])
	if err != nil {
		return dataset.Filter{}, fmt.Errorf("year: %w", err)
	}

	return dataset.Filter{
		Years:        years,
		ProductTypes: splitList(q["type"]),
		Channels:     splitList(q["channel"]),
		Clients:      splitList(q["client"]),
		ProductQuery: q.Get("product"),
	}, nil
}

// optionsFromQuery reads the optional unit-price override.
func optionsFromQuery(r *http.Request) (*bool, error) {
	raw := r.URL.Query().Get("price_is_unit")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("price_is_unit: %w", err)
	}
	return &v, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseIntList(values []string) ([]int, error) {
	var out []int
	for _, v := range splitList(values) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		out = append(out, n)
	}
	return out, nil
}

// GetRecords handles GET /api/data/records.
func (h *DataHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	filter, opts, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	records, stats, err := h.service.Records(r.Context(), filter, opts)
	if err != nil {
		h.fail(w, r, "failed to load records", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
		"stats":  stats,
	})
}

// GetSummary handles GET /api/data/summary.
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, opts, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), filter, opts)
	if err != nil {
		h.fail(w, r, "failed to summarize", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetFilters handles GET /api/data/filters.
func (h *DataHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Filters(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list filters", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
	})
}

// ResolveClient handles GET /api/data/clients/resolve?q=.
func (h *DataHandler) ResolveClient(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("q", "Query is required"))
		return
	}

	resolution, err := h.service.ResolveClient(r.Context(), query)
	if err != nil {
		h.fail(w, r, "failed to resolve client", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resolution,
	})
}

// GetProductHistory handles GET /api/data/products/history?name=.
func (h *DataHandler) GetProductHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Product name is required"))
		return
	}

	filter, opts, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	history, err := h.service.ProductHistory(r.Context(), filter, opts, name)
	if err != nil {
		h.fail(w, r, "failed to build product history", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   history,
		"count":  len(history),
	})
}

// appendRequest is the POST /api/data/records payload.
type appendRequest struct {
	Records []domain.SalesRecord `json:"records"`
}

// AppendRecords handles POST /api/data/records.
func (h *DataHandler) AppendRecords(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if len(req.Records) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("records", "At least one record is required"))
		return
	}

	if err := h.service.Append(r.Context(), req.Records); err != nil {
		h.fail(w, r, "failed to append records", err)
		return
	}

	h.logger.InfoContext(r.Context(), "records appended",
		slog.Int("count", len(req.Records)),
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"appended": len(req.Records),
	})
}

// Upload handles POST /api/data/upload (multipart, field "file").
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("read upload", err))
		return
	}
	if int64(len(data)) > h.maxUpload {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Upload exceeds the size limit"))
		return
	}

	stats, err := h.service.Replace(r.Context(), header.Filename, data)
	if err != nil {
		h.fail(w, r, "failed to replace dataset", err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset replaced",
		slog.String("filename", header.Filename),
		slog.Int("rows", stats.Kept),
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"stats":  stats,
	})
}

// InvalidateCache handles POST /api/data/cache/invalidate. The next read
// reparses the backing file even if its content hash is unchanged.
func (h *DataHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.Invalidate(r.Context())

	h.logger.InfoContext(r.Context(), "dataset cache invalidated",
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}

// ExportCSV handles GET /api/data/export: the filtered set as a CSV download.
func (h *DataHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, opts, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	records, _, err := h.service.Records(r.Context(), filter, opts)
	if err != nil {
		h.fail(w, r, "failed to load records for export", err)
		return
	}

	filename := exportFilename("csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.csvWriter.Write(w, records, exporter.WriteOptions{BOMPrefix: true}); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
		return
	}
	h.service.RecordExport(r.Context())
}

// ExportXLSX handles GET /api/data/export/xlsx: the summary workbook.
func (h *DataHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	filter, opts, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), filter, opts)
	if err != nil {
		h.fail(w, r, "failed to summarize for export", err)
		return
	}

	filename := exportFilename("xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.xlsxWriter.Write(w, summary); err != nil {
		h.logger.ErrorContext(r.Context(), "xlsx export failed", slog.String("error", err.Error()))
		return
	}
	h.service.RecordExport(r.Context())
}

// requestScope parses the shared filter and options parameters, rendering a
// validation problem on bad input.
func (h *DataHandler) requestScope(w http.ResponseWriter, r *http.Request) (dataset.Filter, dataset.Options, bool) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return dataset.Filter{}, dataset.Options{}, false
	}
	override, err := optionsFromQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return dataset.Filter{}, dataset.Options{}, false
	}
	return filter, h.service.Options(override), true
}

func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())))
	h.errorHandler.HandleError(w, r, err)
}

func exportFilename(ext string) string {
	return fmt.Sprintf("ventes_%s_%s.%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.New().String()[:8], ext)
}
