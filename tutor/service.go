// Package tutor composes answers to learner questions from the loaded
// documents and a text-generation model.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabfab/learning-assistant/documents"
	"github.com/fabfab/learning-assistant/llm"
	"github.com/fabfab/learning-assistant/logging"
	"github.com/fabfab/learning-assistant/metrics"
	"github.com/fabfab/learning-assistant/retrieval"
)

var ErrEmptyQuestion = errors.New("question cannot be empty")

type Query struct {
	Question string
	Level    string
}

// Validate reports whether the query carries a non-blank question.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

type Answer struct {
	ID      string
	Text    string
	Sources []string
	Level   string
	// Prompt is the text sent to the model; empty in demo mode.
	Prompt string
}

// Answerer is implemented by the RAG service and by the demo placeholder.
type Answerer interface {
	Answer(ctx context.Context, q Query) (Answer, error)
}

type Options struct {
	TopN   int
	Params llm.Params
	// Timeout bounds each generation call; zero means no limit.
	Timeout time.Duration
}

type Service struct {
	docs    *documents.Store
	llm     llm.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options
}

func NewService(docs *documents.Store, client llm.Client, logger *zap.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.TopN <= 0 {
		opts.TopN = retrieval.DefaultTopN
	}
	if opts.Params == (llm.Params{}) {
		opts.Params = llm.DefaultParams()
	}

	return &Service{
		docs:    docs,
		llm:     client,
		logger:  logging.OrNop(logger),
		metrics: m,
		opts:    opts,
	}
}

func (s *Service) Answer(ctx context.Context, q Query) (Answer, error) {
	answer, err := s.answer(ctx, q)
	s.metrics.ObserveAnswer("rag", err)
	return answer, err
}

func (s *Service) answer(ctx context.Context, q Query) (Answer, error) {
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}
	if s.llm == nil {
		return Answer{}, fmt.Errorf("llm client is not configured")
	}

	id := uuid.NewString()
	logger := s.logger.With(zap.String("answer_id", id))

	used := retrieval.Score(q.Question, s.docs.Documents(), s.opts.TopN)
	s.metrics.ObserveContext(len(used))
	if len(used) == 0 {
		logger.Info("no document matched the question, using empty context")
	} else {
		logger.Debug("selected context", zap.Strings("documents", used))
	}

	prompt := BuildPrompt(q.Question, ToneFor(q.Level), BuildContext(s.docs, used))

	genCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	generated, err := s.llm.Generate(genCtx, prompt, s.opts.Params)
	elapsed := time.Since(start)
	s.metrics.ObserveGeneration(elapsed)
	if err != nil {
		logger.Error("generation failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return Answer{}, fmt.Errorf("llm generate: %w", err)
	}

	text := StripEcho(prompt, generated)
	logger.Info("answer generated",
		zap.String("level", q.Level),
		zap.Int("context_documents", len(used)),
		zap.Duration("elapsed", elapsed),
	)

	return Answer{
		ID:      id,
		Text:    text,
		Sources: used,
		Level:   q.Level,
		Prompt:  prompt,
	}, nil
}

var _ Answerer = (*Service)(nil)
