package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/krishi-vaani/internal/domain/chat"
	"github.com/yanqian/krishi-vaani/internal/domain/disease"
	"github.com/yanqian/krishi-vaani/internal/domain/document"
	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/domain/expert"
	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/orchestrator"
	"github.com/yanqian/krishi-vaani/internal/domain/recommendation"
	"github.com/yanqian/krishi-vaani/internal/domain/session"
	"github.com/yanqian/krishi-vaani/internal/infra/config"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	sessions       session.Service
	orchestrator   orchestrator.Service
	chat           chat.Service
	documents      document.Service
	experts        expert.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, sessions session.Service, orch orchestrator.Service, chatSvc chat.Service, documents document.Service, experts expert.Service, logger *slog.Logger) *Handler {
	return &Handler{
		sessions:       sessions,
		orchestrator:   orch,
		chat:           chatSvc,
		documents:      documents,
		experts:        experts,
		maxUploadBytes: cfg.HTTP.MaxUploadBytes,
		logger:         logger.With("component", "http.handler"),
	}
}

type localeRequest struct {
	Locale string `json:"locale"`
}

type environmentRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// StartSession issues a token for a new session.
func (h *Handler) StartSession(c *gin.Context) {
	var req localeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	started, err := h.sessions.Start(c.Request.Context(), locale.Parse(req.Locale))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, started)
}

// SetLocale switches the session language. An empty locale toggles between
// English and Malayalam.
func (h *Handler) SetLocale(c *gin.Context) {
	var req localeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	sess := currentSession(c)
	var loc locale.Code
	if strings.TrimSpace(req.Locale) == "" {
		loc = sess.ToggleLocale()
	} else {
		loc = locale.Parse(req.Locale)
		sess.SetLocale(loc)
	}
	c.JSON(http.StatusOK, gin.H{"locale": loc})
}

// Environment returns the session's environmental context, acquiring it on
// first use.
func (h *Handler) Environment(c *gin.Context) {
	var req environmentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	var at *environment.Coordinates
	if req.Latitude != nil && req.Longitude != nil {
		at = &environment.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	c.JSON(http.StatusOK, h.orchestrator.Environment(c.Request.Context(), currentSession(c), at))
}

// SubmitRecommendation runs the crop recommendation flow.
func (h *Handler) SubmitRecommendation(c *gin.Context) {
	var req recommendation.Request
	if !bindOptionalJSON(c, &req) {
		return
	}
	snap, err := h.orchestrator.SubmitRecommendation(c.Request.Context(), currentSession(c), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Recommendation returns the latest state of the recommendation flow.
func (h *Handler) Recommendation(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Recommendations.Snapshot())
}

// SubmitDiagnosis runs the disease diagnosis flow on a multipart upload.
func (h *Handler) SubmitDiagnosis(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	req := disease.Request{
		Crop:         c.PostForm("crop"),
		AffectedPart: c.PostForm("affectedPart"),
		Symptoms:     c.PostForm("symptoms"),
	}

	image, err := h.readImage(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	req.Image = image

	snap, err := h.orchestrator.SubmitDiagnosis(c.Request.Context(), currentSession(c), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Diagnosis returns the latest state of the diagnosis flow.
func (h *Handler) Diagnosis(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Diagnoses.Snapshot())
}

// readImage returns an empty image when no file was attached so the flow can
// report the missing upload in the session language.
func (h *Handler) readImage(c *gin.Context) (disease.Image, error) {
	upload, err := readFormFile(c, "file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return disease.Image{}, nil
	}
	if err != nil {
		return disease.Image{}, err
	}
	return disease.Image{Data: upload.data, Filename: upload.filename, ContentType: upload.contentType}, nil
}

type formFile struct {
	data        []byte
	filename    string
	contentType string
}

func readFormFile(c *gin.Context, field string) (formFile, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return formFile{}, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return formFile{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return formFile{}, err
	}
	return formFile{
		data:        data,
		filename:    fileHeader.Filename,
		contentType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

// NearestExpert returns the closest agricultural expert to a location.
func (h *Handler) NearestExpert(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be an integer", err))
			return
		}
		limit = parsed
	}
	found, err := h.experts.Nearest(c.Request.Context(), c.Query("location"), limit)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// bindOptionalJSON decodes the body when one was sent. It reports false after
// aborting the request on malformed input.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	return true
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
