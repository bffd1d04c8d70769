package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pdfchat/pdfchat/internal/textutil"
)

// Upload validates and extracts the uploaded PDF and creates a session for
// it. It returns the new session id and the document's page count.
func (s *Service) Upload(ctx context.Context, r io.Reader, fileName string, size int64) (string, int, error) {
	if fileName == "" || size == 0 {
		return "", 0, validationErr("Please select a PDF file to upload.")
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return "", 0, validationErr("Only PDF files are supported.")
	}
	if size > s.config.MaxUploadBytes {
		return "", 0, validationErr("File size must be less than 50MB.")
	}

	if !s.backend.IsAvailable(ctx) {
		return "", 0, ErrBackendUnavailable
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read upload: %w", err)
	}

	text, pageCount, err := s.extractor.Extract(ctx, data)
	if err != nil {
		// Detail stays in the log; the caller gets the generic
		// extraction failure.
		log.Printf("ERROR: PDF extraction failed for %q: %v", fileName, err)
		return "", 0, ErrNoText
	}

	text = textutil.Sanitize(text)
	if text == "" {
		return "", 0, ErrNoText
	}

	sessionID, err := s.sessions.Create(text, fileName)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("Processed %q: %d pages, %d characters", fileName, pageCount, len(text))
	return sessionID, pageCount, nil
}
