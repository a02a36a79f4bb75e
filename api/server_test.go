package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/learning-assistant/api"
	"github.com/fabfab/learning-assistant/config"
	"github.com/fabfab/learning-assistant/documents"
	"github.com/fabfab/learning-assistant/metrics"
	"github.com/fabfab/learning-assistant/tutor"
)

type stubAnswerer struct {
	answer tutor.Answer
	err    error
	calls  int
	last   tutor.Query
}

func (s *stubAnswerer) Answer(_ context.Context, q tutor.Query) (tutor.Answer, error) {
	s.calls++
	s.last = q
	if err := q.Validate(); err != nil {
		return tutor.Answer{}, err
	}
	if s.err != nil {
		return tutor.Answer{}, s.err
	}
	answer := s.answer
	answer.Level = q.Level
	return answer, nil
}

var _ tutor.Answerer = (*stubAnswerer)(nil)

func newServer(answerer tutor.Answerer) *api.Server {
	store := documents.NewStore(
		documents.Document{Name: "ai_basics", Path: "data/ai_basics.txt", Content: "Supervised learning uses labeled data."},
		documents.Document{Name: "ml", Content: ""},
		documents.Document{Name: "gen_ai", Path: "data/gen_ai.txt", Content: "LLMs"},
	)
	return api.New(config.Default(), answerer, store, nil, metrics.New())
}

func postForm(t *testing.T, srv http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersForm(t *testing.T) {
	srv := newServer(&stubAnswerer{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "AI Learning Assistant")
	assert.Contains(t, body, `<option value="beginner" selected>`)
	assert.Contains(t, body, `<option value="intermediate">`)
	assert.Contains(t, body, `<option value="advanced">`)
	assert.Contains(t, body, `name="show_sources"`)
	assert.Contains(t, body, "Get answer")
	assert.NotContains(t, body, "<h2>Answer</h2>")
	assert.NotContains(t, body, "UI-only demo")
}

func TestSubmitBlankQuestionStaysIdle(t *testing.T) {
	stub := &stubAnswerer{}
	srv := newServer(stub)

	rec := postForm(t, srv, url.Values{"question": {"   "}, "level": {"advanced"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, stub.calls)
	assert.NotContains(t, rec.Body.String(), "<h2>Answer</h2>")
	assert.Contains(t, rec.Body.String(), `<option value="advanced" selected>`)
}

func TestSubmitRendersAnswerAndSources(t *testing.T) {
	stub := &stubAnswerer{answer: tutor.Answer{
		Text:    "Supervised learning uses **labeled** data.",
		Sources: []string{"ai_basics"},
	}}
	srv := newServer(stub)

	rec := postForm(t, srv, url.Values{
		"question":     {"What is supervised learning?"},
		"level":        {"intermediate"},
		"show_sources": {"on"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, tutor.Query{Question: "What is supervised learning?", Level: "intermediate"}, stub.last)
	assert.Contains(t, body, "<h2>Answer</h2>")
	assert.Contains(t, body, "<strong>labeled</strong>")
	assert.Contains(t, body, "<li>ai_basics</li>")
	assert.Contains(t, body, "What is supervised learning?</textarea>")
	assert.Contains(t, body, "checked")
}

func TestSubmitHidesSourcesByDefault(t *testing.T) {
	srv := newServer(&stubAnswerer{answer: tutor.Answer{Text: "Answer.", Sources: []string{"ml"}}})

	rec := postForm(t, srv, url.Values{"question": {"What is overfitting?"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<h3>Sources</h3>")
	assert.NotContains(t, rec.Body.String(), "<li>ml</li>")
}

func TestSubmitShowsNoMatchedSources(t *testing.T) {
	srv := newServer(&stubAnswerer{answer: tutor.Answer{Text: tutor.Fallback}})

	rec := postForm(t, srv, url.Values{"question": {"Who won the match?"}, "show_sources": {"on"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No documents matched.")
}

func TestSubmitDefaultsToBeginner(t *testing.T) {
	stub := &stubAnswerer{answer: tutor.Answer{Text: "ok"}}
	srv := newServer(stub)

	postForm(t, srv, url.Values{"question": {"What is AI?"}})
	assert.Equal(t, "beginner", stub.last.Level)
}

func TestSubmitEscapesRawHTML(t *testing.T) {
	srv := newServer(&stubAnswerer{answer: tutor.Answer{Text: "<script>alert(1)</script>"}})

	rec := postForm(t, srv, url.Values{"question": {"xss?"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func TestSubmitGenerationFailure(t *testing.T) {
	srv := newServer(&stubAnswerer{err: errors.New("model unavailable")})

	rec := postForm(t, srv, url.Values{"question": {"What is AI?"}})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, rec.Body.String(), "model unavailable")
}

func TestDemoModePage(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeDemo
	srv := api.New(cfg, tutor.NewDemo(nil), documents.NewStore(), nil, nil)

	rec := postForm(t, srv, url.Values{"question": {"What is ML?"}, "level": {"advanced"}})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "UI-only demo")
	assert.Contains(t, body, "<em>(Demo mode)</em>")
	assert.Contains(t, body, "You asked: <strong>What is ML?</strong>")
	assert.Contains(t, body, "Level selected: <strong>advanced</strong>")
}

func TestUnknownPath(t *testing.T) {
	srv := newServer(&stubAnswerer{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskJSON(t *testing.T) {
	stub := &stubAnswerer{answer: tutor.Answer{ID: "abc", Text: "Labeled data.", Sources: []string{"ai_basics"}}}
	srv := newServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"What is supervised learning?","level":"advanced","showSources":true}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID      string   `json:"id"`
		Answer  string   `json:"answer"`
		Level   string   `json:"level"`
		Sources []string `json:"sources"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, "Labeled data.", resp.Answer)
	assert.Equal(t, "advanced", resp.Level)
	assert.Equal(t, []string{"ai_basics"}, resp.Sources)
}

func TestAskJSONOmitsSourcesUnlessRequested(t *testing.T) {
	srv := newServer(&stubAnswerer{answer: tutor.Answer{Text: "ok", Sources: []string{"ml"}}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"overfitting?"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sources")
	assert.Contains(t, rec.Body.String(), `"level":"beginner"`)
}

func TestAskJSONValidation(t *testing.T) {
	srv := newServer(&stubAnswerer{})

	for name, body := range map[string]string{
		"missing question": `{"level":"beginner"}`,
		"blank question":   `{"question":"   "}`,
		"unknown field":    `{"question":"q","topic":"x"}`,
		"malformed":        `{"question":`,
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestAskJSONGenerationFailure(t *testing.T) {
	srv := newServer(&stubAnswerer{err: errors.New("model unavailable")})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"What is AI?"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "model unavailable")
}

func TestAskMethodNotAllowed(t *testing.T) {
	srv := newServer(&stubAnswerer{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ask", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestDocumentsEndpoint(t *testing.T) {
	srv := newServer(&stubAnswerer{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []struct {
		Name  string `json:"name"`
		Path  string `json:"path"`
		Bytes int    `json:"bytes"`
		Empty bool   `json:"empty"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	require.Len(t, docs, 3)
	assert.Equal(t, "ai_basics", docs[0].Name)
	assert.Equal(t, "data/ai_basics.txt", docs[0].Path)
	assert.False(t, docs[0].Empty)
	assert.Equal(t, "ml", docs[1].Name)
	assert.True(t, docs[1].Empty)
	assert.Zero(t, docs[1].Bytes)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(&stubAnswerer{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}
