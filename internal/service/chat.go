package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pdfchat/pdfchat/internal/domain"
	"github.com/pdfchat/pdfchat/internal/grounding"
	"github.com/pdfchat/pdfchat/internal/policy"
)

// Ask answers a question against the session's document and returns the
// answer together with the updated conversation history.
//
// Layered validation, in precedence order: a self-declared refusal from
// the model is final; otherwise the pipeline's grounding score may replace
// the answer; otherwise the off-topic question gate may still force the
// refusal even for an answer the pipeline accepted.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (string, []domain.Message, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, validationErr("Please enter a question.")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", nil, validationErr("Session expired. Please upload the PDF again.")
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", nil, err
	}

	if !s.backend.IsAvailable(ctx) {
		return "", nil, ErrBackendUnavailable
	}

	s.sessions.Append(sessionID, domain.Message{
		Role:      domain.RoleUser,
		Content:   question,
		Timestamp: time.Now().UTC(),
	})

	answer, err := s.pipeline.Answer(ctx, question, sess.DocumentText)
	if err != nil {
		return "", nil, fmt.Errorf("failed to answer question: %w", err)
	}

	if !grounding.IsRefusal(answer) {
		decision, err := s.gate.Evaluate(ctx, question, sess.DocumentText)
		if err != nil {
			log.Printf("WARN: off-topic gate evaluation failed: %v", err)
		} else if decision == policy.DecisionRefuse {
			answer = grounding.Refusal
		}
	}

	s.sessions.Append(sessionID, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   answer,
		Timestamp: time.Now().UTC(),
	})

	updated, err := s.sessions.Get(sessionID)
	if err != nil {
		// Session expired mid-request; the answer itself is still good.
		return answer, nil, nil
	}
	return answer, updated.History, nil
}

// ClearSession drops the session. Best-effort: clearing an unknown id is
// not an error.
func (s *Service) ClearSession(sessionID string) {
	if sessionID == "" {
		return
	}
	log.Printf("Clearing session: %s", sessionID)
	s.sessions.Delete(sessionID)
}
