// Package service implements the upload and chat operations on top of the
// session store, the PDF extractor, and the grounding pipeline.
package service

import (
	"github.com/pdfchat/pdfchat/internal/adapter/ollama"
	"github.com/pdfchat/pdfchat/internal/adapter/pdftext"
	"github.com/pdfchat/pdfchat/internal/config"
	"github.com/pdfchat/pdfchat/internal/grounding"
	"github.com/pdfchat/pdfchat/internal/policy"
	"github.com/pdfchat/pdfchat/internal/session"
)

type Service struct {
	sessions  *session.Store
	extractor pdftext.Extractor
	backend   ollama.Backend
	pipeline  *grounding.Pipeline
	gate      *policy.Engine
	config    *config.Config
}

func New(sessions *session.Store, extractor pdftext.Extractor, backend ollama.Backend, pipeline *grounding.Pipeline, gate *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		sessions:  sessions,
		extractor: extractor,
		backend:   backend,
		pipeline:  pipeline,
		gate:      gate,
		config:    cfg,
	}
}
