package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/krishi-vaani/internal/domain/document"
)

// UploadDocument indexes a file and attaches it to the thread in the path.
func (h *Handler) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	owner, threadID := currentSession(c).ID, c.Param("id")
	if !h.requireThread(c, owner, threadID) {
		return
	}

	upload, err := readFormFile(c, "file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "no file provided", err))
		return
	}
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), owner, threadID, document.Upload{
		Filename:    upload.filename,
		ContentType: upload.contentType,
		Description: c.PostForm("description"),
		Data:        upload.data,
	})
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// ThreadDocuments lists the documents attached to a thread.
func (h *Handler) ThreadDocuments(c *gin.Context) {
	owner, threadID := currentSession(c).ID, c.Param("id")
	if !h.requireThread(c, owner, threadID) {
		return
	}
	docs, err := h.documents.ForThread(c.Request.Context(), owner, threadID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ListDocuments returns every document the session uploaded.
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), currentSession(c).ID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// AttachDocument makes an uploaded document available to another thread.
func (h *Handler) AttachDocument(c *gin.Context) {
	owner, threadID := currentSession(c).ID, c.Param("id")
	if !h.requireThread(c, owner, threadID) {
		return
	}
	doc, err := h.documents.Associate(c.Request.Context(), owner, c.Param("docId"), threadID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// SearchDocuments ranks excerpts of the session's documents against q.
func (h *Handler) SearchDocuments(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be an integer", err))
			return
		}
		limit = parsed
	}
	query := c.Query("q")
	hits, err := h.documents.Search(c.Request.Context(), currentSession(c).ID, query, limit)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": hits})
}

// requireThread aborts with not_found unless the session owns threadID.
func (h *Handler) requireThread(c *gin.Context, owner, threadID string) bool {
	if _, err := h.chat.History(c.Request.Context(), owner, threadID); err != nil {
		abortWithDomainError(c, err)
		return false
	}
	return true
}
