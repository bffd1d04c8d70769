package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfchat/pdfchat/internal/adapter/ollama"
	"github.com/pdfchat/pdfchat/internal/config"
	"github.com/pdfchat/pdfchat/internal/domain"
	"github.com/pdfchat/pdfchat/internal/grounding"
	"github.com/pdfchat/pdfchat/internal/policy"
	"github.com/pdfchat/pdfchat/internal/session"
)

// fakeBackend serves canned answers and a switchable liveness state.
type fakeBackend struct {
	answer    string
	err       error
	available bool
}

func (f *fakeBackend) Generate(_ context.Context, _ *ollama.GenerateRequest) (string, error) {
	return f.answer, f.err
}

func (f *fakeBackend) IsAvailable(context.Context) bool { return f.available }

// fakeExtractor returns fixed text without parsing anything.
type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) Extract(context.Context, []byte) (string, int, error) {
	return f.text, f.pages, f.err
}

func newTestService(t *testing.T, backend *fakeBackend, extractor *fakeExtractor) *Service {
	t.Helper()

	cfg := &config.Config{
		OllamaModel:    "llama3.2",
		SessionTimeout: 2 * time.Hour,
		SweepInterval:  30 * time.Minute,
		MaxUploadBytes: 50 * 1024 * 1024,
	}
	gate, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	store := session.NewStore(cfg.SessionTimeout, cfg.SweepInterval)
	pipeline := grounding.New(backend, cfg.OllamaModel)
	return New(store, extractor, backend, pipeline, gate, cfg)
}

func uploadTestDoc(t *testing.T, svc *Service, text string) string {
	t.Helper()
	svc.extractor = &fakeExtractor{text: text, pages: 1}
	id, pages, err := svc.Upload(context.Background(), strings.NewReader("%PDF-fake"), "report.pdf", 9)
	require.NoError(t, err)
	require.Equal(t, 1, pages)
	return id
}

func TestUploadValidation(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{text: "doc", pages: 1})

	tests := []struct {
		name     string
		fileName string
		size     int64
		wantMsg  string
	}{
		{"missing file", "", 0, "Please select a PDF file to upload."},
		{"empty file", "report.pdf", 0, "Please select a PDF file to upload."},
		{"wrong extension", "report.docx", 10, "Only PDF files are supported."},
		{"oversized", "report.pdf", 51 * 1024 * 1024, "File size must be less than 50MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Upload(context.Background(), strings.NewReader(""), tt.fileName, tt.size)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestUploadExtensionCaseInsensitive(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{text: "doc text", pages: 3})

	id, pages, err := svc.Upload(context.Background(), strings.NewReader("%PDF-fake"), "REPORT.PDF", 9)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.NotEmpty(t, id)
}

func TestUploadBackendUnavailable(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: false}, &fakeExtractor{text: "doc", pages: 1})

	_, _, err := svc.Upload(context.Background(), strings.NewReader("%PDF-fake"), "report.pdf", 9)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestUploadExtractionFailure(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{err: errors.New("corrupt xref table")})

	_, _, err := svc.Upload(context.Background(), strings.NewReader("%PDF-fake"), "report.pdf", 9)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestUploadEmptyExtractionRejected(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{text: "  \n\t ", pages: 2})

	_, _, err := svc.Upload(context.Background(), strings.NewReader("%PDF-fake"), "scanned.pdf", 9)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestUploadSanitizesDocumentText(t *testing.T) {
	backend := &fakeBackend{available: true, answer: grounding.Refusal}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "--- Page 1 ---\nRevenue   was\n\n$5M in 2023.\x01")

	sess, err := svc.sessions.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "--- Page 1 --- Revenue was $5M in 2023.", sess.DocumentText)
}

func TestAskRoundTrip(t *testing.T) {
	backend := &fakeBackend{available: true, answer: "The revenue was $5M in 2023."}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "Revenue was $5M in 2023.")

	answer, history, err := svc.Ask(context.Background(), id, "What was the revenue?")
	require.NoError(t, err)
	assert.Equal(t, "The revenue was $5M in 2023.", answer)

	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "What was the revenue?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, answer, history[1].Content)
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{})

	_, _, err := svc.Ask(context.Background(), "some-id", "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please enter a question.", verr.Message)
}

func TestAskBlankSessionID(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{})

	_, _, err := svc.Ask(context.Background(), "", "What was the revenue?")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Session expired. Please upload the PDF again.", verr.Message)
}

func TestAskUnknownSession(t *testing.T) {
	svc := newTestService(t, &fakeBackend{available: true}, &fakeExtractor{})

	_, _, err := svc.Ask(context.Background(), "missing", "What was the revenue?")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAskBackendUnavailable(t *testing.T) {
	backend := &fakeBackend{available: true, answer: grounding.Refusal}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "Revenue was $5M in 2023.")

	backend.available = false
	_, _, err := svc.Ask(context.Background(), id, "What was the revenue?")
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	// The probe failed before anything was recorded.
	sess, err := svc.sessions.Get(id)
	require.NoError(t, err)
	assert.Empty(t, sess.History)
}

func TestAskOffTopicGateOverridesAnswer(t *testing.T) {
	// The model (wrongly) answers from outside knowledge and the words it
	// uses even appear document-adjacent. The question gate still refuses
	// because "weather" is not in the document.
	backend := &fakeBackend{available: true, answer: "Revenue conditions were sunny in 2023."}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "Revenue was $5M in 2023.")

	answer, history, err := svc.Ask(context.Background(), id, "What was the weather like?")
	require.NoError(t, err)
	assert.Equal(t, grounding.Refusal, answer)
	require.Len(t, history, 2)
	assert.Equal(t, grounding.Refusal, history[1].Content)
}

func TestAskRefusalSkipsGate(t *testing.T) {
	// A self-declared refusal is accepted as-is even for an off-topic
	// question; the gate never rewrites it.
	raw := "I don't have that information in the uploaded PDF document."
	backend := &fakeBackend{available: true, answer: raw}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "Revenue was $5M in 2023.")

	answer, _, err := svc.Ask(context.Background(), id, "What is the weather today?")
	require.NoError(t, err)
	assert.Equal(t, raw, answer)
}

func TestAskModelFailure(t *testing.T) {
	backend := &fakeBackend{available: true, err: errors.New("status 500")}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "Revenue was $5M in 2023.")

	_, _, err := svc.Ask(context.Background(), id, "What was the revenue?")
	require.Error(t, err)

	// The question was appended before the model call; a later retry may
	// leave consecutive user messages, which the store tolerates.
	sess, err := svc.sessions.Get(id)
	require.NoError(t, err)
	assert.Len(t, sess.History, 1)
}

func TestClearSession(t *testing.T) {
	backend := &fakeBackend{available: true, answer: grounding.Refusal}
	svc := newTestService(t, backend, &fakeExtractor{})
	id := uploadTestDoc(t, svc, "Revenue was $5M in 2023.")

	svc.ClearSession(id)
	assert.False(t, svc.sessions.Exists(id))

	// Clearing again, or clearing junk, must not fail.
	svc.ClearSession(id)
	svc.ClearSession("")
	svc.ClearSession("never-existed")
}
