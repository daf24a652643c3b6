package lowering_test

import (
	"context"
	"errors"
	"testing"

	"cogc/internal/llmclient"
	"cogc/internal/lowering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	responses []string
	calls     int
	err       error
}

func (f *fakeLLM) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	if f.err != nil {
		f.calls++
		return nil, f.err
	}
	resp := f.responses[f.calls]
	f.calls++
	return &llmclient.Response{JSON: []byte(resp)}, nil
}

const validWidgetIRJSON = `{
  "domain": {"entities": [{"name": "Widget", "fields": [{"name": "id", "type": "uuid"}]}]},
  "api": {"endpoints": [{"method": "POST", "path": "/widgets", "operation_id": "create_widget", "entity": "Widget"}]},
  "behavior": {"flows": []}
}`

func TestLowerProducesValidatedNormalizedIR(t *testing.T) {
	fake := &fakeLLM{responses: []string{validWidgetIRJSON}}
	l := lowering.New(fake, nil)

	app, err := l.Lower(context.Background(), "a widget spec", lowering.EnrichmentConfig{StrictMode: true})
	require.NoError(t, err)
	assert.Equal(t, "Widget", app.Domain.Entities[0].Name)
	assert.NoError(t, app.Validate())
}

func TestLowerRetriesOnceOnSynthesisFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("transient")}
	l := lowering.New(fake, nil)

	_, err := l.Lower(context.Background(), "spec", lowering.EnrichmentConfig{})
	require.Error(t, err)
	assert.Equal(t, 2, fake.calls, "expected exactly one retry (two total calls)")
}

func TestLowerEnrichesUnlessStrictMode(t *testing.T) {
	fake := &fakeLLM{responses: []string{validWidgetIRJSON}}
	l := lowering.New(fake, nil)

	app, err := l.Lower(context.Background(), "spec", lowering.EnrichmentConfig{StrictMode: false})
	require.NoError(t, err)

	var hasHealth bool
	for _, ep := range app.API.Endpoints {
		if ep.Path == "/health" {
			hasHealth = true
		}
	}
	assert.True(t, hasHealth)
}
