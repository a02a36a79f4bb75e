package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/fabfab/learning-assistant/config"
	"github.com/fabfab/learning-assistant/documents"
	"github.com/fabfab/learning-assistant/logging"
	"github.com/fabfab/learning-assistant/metrics"
	"github.com/fabfab/learning-assistant/tutor"
)

// Server exposes the tutor form UI and a small JSON API.
type Server struct {
	answerer tutor.Answerer
	docs     *documents.Store
	demo     bool
	logger   *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	markdown goldmark.Markdown
	handler  http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type askRequest struct {
	Question    string `json:"question" validate:"required"`
	Level       string `json:"level"`
	ShowSources bool   `json:"showSources"`
}

type askResponse struct {
	ID      string   `json:"id"`
	Answer  string   `json:"answer"`
	Level   string   `json:"level"`
	Sources []string `json:"sources,omitempty"`
}

type documentInfo struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Bytes int    `json:"bytes"`
	Empty bool   `json:"empty"`
}

// New constructs a Server answering with answerer. docs is only used to
// report what was loaded.
func New(cfg config.Config, answerer tutor.Answerer, docs *documents.Store, logger *zap.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		answerer: answerer,
		docs:     docs,
		demo:     cfg.Mode == config.ModeDemo,
		logger:   logging.OrNop(logger),
		metrics:  m,
		validate: validator.New(),
		markdown: goldmark.New(),
	}
	s.handler = m.Middleware(s.routes())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/ask", s.handleAsk)
	mux.HandleFunc("/v1/documents", s.handleDocuments)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return
	}

	level := strings.TrimSpace(req.Level)
	if level == "" {
		level = string(tutor.Beginner)
	}

	answer, err := s.answerer.Answer(r.Context(), tutor.Query{Question: req.Question, Level: level})
	if err != nil {
		if errors.Is(err, tutor.ErrEmptyQuestion) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("answer failed: %w", err))
		return
	}

	resp := askResponse{ID: answer.ID, Answer: answer.Text, Level: answer.Level}
	if req.ShowSources {
		resp.Sources = answer.Sources
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	docs := s.docs.Documents()
	infos := make([]documentInfo, len(docs))
	for i, doc := range docs {
		infos[i] = documentInfo{
			Name:  doc.Name,
			Path:  doc.Path,
			Bytes: len(doc.Content),
			Empty: strings.TrimSpace(doc.Content) == "",
		}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("api error", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}
