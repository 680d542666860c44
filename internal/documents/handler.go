package documents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
	"legaldocs-backend/internal/shared/server/middleware"
	"legaldocs-backend/internal/shared/server/respond"
)

// multipartOverhead is allowed on top of the file size limit.
const multipartOverhead = 1 << 20

const maxListLimit = 500

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.POST("/documents/:id/analyze", h.analyze)
	rg.POST("/maintenance/cleanup", h.cleanup)
}

func (h *Handler) upload(c *gin.Context) {
	maxBytes := h.Svc.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = extract.DefaultMaxBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": maxBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if doc.ID != "" {
		c.Set(middleware.DocumentIDKey, doc.ID)
	}
	if err != nil {
		var xerr *extract.Error
		switch {
		case errors.As(err, &xerr) && doc.ID != "":
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", xerr.Error(), gin.H{"document": toResponse(doc)})
		case errors.Is(err, extract.ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), gin.H{"maxBytes": maxBytes})
		case errors.Is(err, extract.ErrUnsupportedType):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error(), gin.H{"supported": []string{"pdf", "docx", "txt"}})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	filter := ListFilter{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
	}
	if v := strings.TrimSpace(c.Query("type")); v != "" {
		ft, err := extract.ParseFileType(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "type must be pdf, docx or txt", nil)
			return
		}
		filter.FileType = ft
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer", nil)
			return
		}
		filter.Limit = parsed
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	docs, err := h.Svc.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := ListResponse{Documents: make([]DocumentSummary, 0, len(docs)), Count: len(docs)}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toSummary(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.storageError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.storageError(c, err, "failed to delete document")
		return
	}
	respond.NoContent(c)
}

type analyzeRequest struct {
	AnalysisType     string `json:"analysisType"`
	DetailLevel      string `json:"detailLevel"`
	ExtractEntities  *bool  `json:"extractEntities"`
	AssessRisks      *bool  `json:"assessRisks"`
	TimelineAnalysis *bool  `json:"timelineAnalysis"`
}

func (r analyzeRequest) toRequest() (analyses.Request, error) {
	kind, err := analyses.ParseType(r.AnalysisType)
	if err != nil {
		return analyses.Request{}, err
	}
	level, err := analyses.ParseLevel(r.DetailLevel)
	if err != nil {
		return analyses.Request{}, err
	}
	opts := analyses.DefaultOptions()
	if r.ExtractEntities != nil {
		opts.ExtractEntities = *r.ExtractEntities
	}
	if r.AssessRisks != nil {
		opts.AssessRisks = *r.AssessRisks
	}
	if r.TimelineAnalysis != nil {
		opts.TimelineAnalysis = *r.TimelineAnalysis
	}
	return analyses.Request{Type: kind, Level: level, Options: opts}, nil
}

func (h *Handler) analyze(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)

	var body analyzeRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	c.Set(middleware.AnalysisTypeKey, string(req.Type))

	doc, err := h.Svc.Analyze(c.Request.Context(), id, req)
	if err != nil {
		var aerr *analyses.Error
		switch {
		case errors.As(err, &aerr):
			status := http.StatusBadGateway
			switch aerr.Code {
			case analyses.ErrorCodeLLMTimeout:
				status = http.StatusGatewayTimeout
			case analyses.ErrorCodeLLMNotConfigured:
				status = http.StatusServiceUnavailable
			case analyses.ErrorCodeValidation:
				status = http.StatusBadRequest
			}
			respond.Error(c, status, "analysis_failed", aerr.Error(), gin.H{
				"errorCode":   aerr.Code,
				"rawResponse": aerr.Raw,
				"document":    toResponse(doc),
			})
		case errors.Is(err, ErrNoContent):
			respond.Error(c, http.StatusConflict, "no_content", "document has no extracted text to analyze", gin.H{"extractionError": doc.ExtractionError})
		default:
			h.storageError(c, err, "failed to analyze document")
		}
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) cleanup(c *gin.Context) {
	olderThan := DefaultRetention
	if v := c.Query("olderThanDays"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "olderThanDays must be a positive integer", nil)
			return
		}
		olderThan = time.Duration(days) * 24 * time.Hour
	}

	deleted, err := h.Svc.Cleanup(c.Request.Context(), olderThan)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "cleanup failed", gin.H{"deleted": deleted})
		return
	}
	respond.OK(c, gin.H{"deleted": deleted})
}

func (h *Handler) storageError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusInternalServerError, "storage_error", message, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
	}
}
