package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Text string `json:"text"`
}

// CreateThread opens a chat thread seeded with the greeting.
func (h *Handler) CreateThread(c *gin.Context) {
	sess := currentSession(c)
	thread, messages, err := h.chat.CreateThread(c.Request.Context(), sess.ID, sess.Locale())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"thread": thread, "messages": messages})
}

// ListThreads returns the session's threads, most recent first.
func (h *Handler) ListThreads(c *gin.Context) {
	threads, err := h.chat.ListThreads(c.Request.Context(), currentSession(c).ID)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// ThreadMessages returns the ordered history of a thread.
func (h *Handler) ThreadMessages(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context(), currentSession(c).ID, c.Param("id"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage posts a question to a thread and returns both new messages.
// Blank text is accepted and ignored.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	sess := currentSession(c)
	result, err := h.chat.Send(c.Request.Context(), sess.ID, c.Param("id"), req.Text, sess.Locale())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteThread removes a thread and its messages. Documents attached to the
// thread stay in the session library.
func (h *Handler) DeleteThread(c *gin.Context) {
	owner, threadID := currentSession(c).ID, c.Param("id")
	if err := h.chat.DeleteThread(c.Request.Context(), owner, threadID); err != nil {
		abortWithDomainError(c, err)
		return
	}
	if err := h.documents.DetachThread(c.Request.Context(), owner, threadID); err != nil {
		h.logger.Warn("detach documents from deleted thread", "thread", threadID, "error", err)
	}
	c.Status(http.StatusNoContent)
}
