// Package v1 provides the HTTP handlers for the PDF chat service.
package v1

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdfchat/pdfchat/internal/domain"
	"github.com/pdfchat/pdfchat/internal/service"
	"github.com/pdfchat/pdfchat/internal/session"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/upload", h.Upload)
	e.POST("/ask", h.Ask)
	e.POST("/clear-session", h.ClearSession)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// Upload accepts a multipart PDF upload and creates a chat session for it.
// The browser UI reads the envelope's success flag, so failures are
// reported as 200 + error message rather than HTTP error statuses.
func (h *Handler) Upload(c echo.Context) error {
	file, err := c.FormFile("pdfFile")
	if err != nil {
		return c.JSON(http.StatusOK, domain.UploadResult{
			Error: "Please select a PDF file to upload.",
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Printf("ERROR: failed to open upload %q: %v", file.Filename, err)
		return c.JSON(http.StatusOK, domain.UploadResult{
			Error: "An error occurred while reading the upload.",
		})
	}
	defer src.Close()

	sessionID, pageCount, err := h.service.Upload(c.Request().Context(), src, file.Filename, file.Size)
	if err != nil {
		return c.JSON(http.StatusOK, domain.UploadResult{Error: uploadErrorMessage(err)})
	}

	return c.JSON(http.StatusOK, domain.UploadResult{
		Success:   true,
		Message:   uploadSuccessMessage(pageCount),
		SessionID: sessionID,
		PageCount: pageCount,
		FileName:  file.Filename,
	})
}

// Ask answers a question against the session's document.
func (h *Handler) Ask(c echo.Context) error {
	var req domain.AskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, domain.AskResponse{
			Error: "Please enter a question.",
		})
	}

	answer, history, err := h.service.Ask(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return c.JSON(http.StatusOK, domain.AskResponse{Error: askErrorMessage(err)})
	}

	return c.JSON(http.StatusOK, domain.AskResponse{
		Success: true,
		Message: answer,
		History: history,
	})
}

// ClearSession drops the session. Always reports success.
func (h *Handler) ClearSession(c echo.Context) error {
	var req domain.ClearRequest
	if err := c.Bind(&req); err == nil {
		h.service.ClearSession(req.SessionID)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session cleared successfully.",
	})
}

func uploadSuccessMessage(pageCount int) string {
	return fmt.Sprintf("PDF uploaded successfully! %d pages processed.", pageCount)
}

func uploadErrorMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, service.ErrBackendUnavailable):
		return "AI service is not available. Please ensure Ollama is running."
	case errors.Is(err, service.ErrNoText):
		return "Could not extract text from PDF. The PDF may be empty or image-based."
	default:
		log.Printf("ERROR: upload failed: %v", err)
		return "An error occurred while processing the PDF. Please try again."
	}
}

func askErrorMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, session.ErrNotFound):
		return "Session not found. Please upload the PDF again."
	case errors.Is(err, service.ErrBackendUnavailable):
		return "AI service is not available. Please ensure Ollama is running."
	default:
		log.Printf("ERROR: ask failed: %v", err)
		return "An error occurred while generating the answer. Please try again."
	}
}
