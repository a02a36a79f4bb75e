package tutor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fabfab/learning-assistant/metrics"
)

const demoTemplate = `_(Demo mode)_

You asked: **%s**

Level selected: **%s**

This is where the AI/RAG answer from your Databricks knowledge base would appear.`

// Demo answers without retrieval or generation, echoing the query back.
type Demo struct {
	metrics *metrics.Metrics
}

func NewDemo(m *metrics.Metrics) *Demo {
	return &Demo{metrics: m}
}

func (d *Demo) Answer(_ context.Context, q Query) (Answer, error) {
	if err := q.Validate(); err != nil {
		d.metrics.ObserveAnswer("demo", err)
		return Answer{}, err
	}

	d.metrics.ObserveAnswer("demo", nil)
	return Answer{
		ID:      uuid.NewString(),
		Text:    fmt.Sprintf(demoTemplate, q.Question, q.Level),
		Sources: []string{},
		Level:   q.Level,
	}, nil
}

var _ Answerer = (*Demo)(nil)
