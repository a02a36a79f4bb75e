package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fabfab/learning-assistant/tutor"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	pageTitle          = "AI Learning Assistant"
	genericAnswerError = "Something went wrong while generating the answer. Please try again."
)

type pageData struct {
	Title       string
	Demo        bool
	Levels      []string
	Level       string
	Question    string
	ShowSources bool
	Answered    bool
	Answer      template.HTML
	Sources     []string
	Error       string
}

func (s *Server) newPage() pageData {
	levels := make([]string, len(tutor.Levels))
	for i, level := range tutor.Levels {
		levels[i] = string(level)
	}

	return pageData{
		Title:  pageTitle,
		Demo:   s.demo,
		Levels: levels,
		Level:  string(tutor.Beginner),
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.renderPage(w, http.StatusOK, s.newPage())
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		s.methodNotAllowed(w, http.MethodGet+", "+http.MethodPost)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}

	page := s.newPage()
	page.Question = r.PostFormValue("question")
	page.ShowSources = r.PostFormValue("show_sources") != ""
	if level := strings.TrimSpace(r.PostFormValue("level")); level != "" {
		page.Level = level
	}

	// A blank question leaves the page idle.
	if strings.TrimSpace(page.Question) == "" {
		s.renderPage(w, http.StatusOK, page)
		return
	}

	answer, err := s.answerer.Answer(r.Context(), tutor.Query{Question: page.Question, Level: page.Level})
	if err != nil {
		s.logger.Error("answer failed", zap.Error(err))
		page.Error = genericAnswerError
		s.renderPage(w, http.StatusBadGateway, page)
		return
	}

	page.Answered = true
	page.Answer = s.renderMarkdown(answer.Text)
	page.Sources = answer.Sources
	s.renderPage(w, http.StatusOK, page)
}

// renderMarkdown converts the answer to HTML. Raw HTML in the answer is
// omitted by the renderer.
func (s *Server) renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		s.logger.Warn("render answer markdown", zap.Error(err))
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(buf.String())
}

func (s *Server) renderPage(w http.ResponseWriter, status int, page pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("render page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("write page", zap.Error(err))
	}
}
