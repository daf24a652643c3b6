package llmclient_test

import (
	"context"
	"errors"
	"testing"

	"cogc/internal/config"
	"cogc/internal/llmclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls int
	fail  int // number of leading calls that fail
}

func (f *fakeClient) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, errors.New("transient failure")
	}
	return &llmclient.Response{JSON: []byte(`{"ok":true}`)}, nil
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := llmclient.New(config.LLMConfig{Provider: "bogus"})
	assert.Error(t, err)
}

func TestWithRetryRetriesOnceOnTransientFailure(t *testing.T) {
	fake := &fakeClient{fail: 1}
	c := llmclient.WithRetry(fake)

	resp, err := c.Complete(context.Background(), llmclient.Request{Slot: "test"})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
	assert.JSONEq(t, `{"ok":true}`, string(resp.JSON))
}

func TestWithRetryEscalatesAfterSecondFailure(t *testing.T) {
	fake := &fakeClient{fail: 2}
	c := llmclient.WithRetry(fake)

	_, err := c.Complete(context.Background(), llmclient.Request{Slot: "test"})
	assert.Error(t, err)
	assert.Equal(t, 2, fake.calls)
}
