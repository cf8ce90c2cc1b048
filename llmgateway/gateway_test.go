package llmgateway_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/marcusreed/propforge/llmgateway"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type flakyModel struct {
	failTimes int32
	calls     int32
}

func (m *flakyModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	n := atomic.AddInt32(&m.calls, 1)
	if n <= m.failTimes {
		return nil, errors.New("synthetic transient failure")
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}, nil
}

func (m *flakyModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return "", errors.New("unused")
}

func fastBackoff() func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Millisecond
		b.MaxInterval = 2 * time.Millisecond
		b.MaxElapsedTime = 200 * time.Millisecond
		return b
	}
}

func TestGatewayRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	model := &flakyModel{failTimes: 2}
	gw := llmgateway.New(model, llmgateway.WithBackoff(fastBackoff()))

	resp, err := gw.Generate(context.Background(), llmgateway.Request{SystemPrompt: "sys", Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&model.calls))
}

type rejectingModel struct {
	calls int32
}

func (m *rejectingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	atomic.AddInt32(&m.calls, 1)
	return nil, &openai.APIError{HTTPStatusCode: 400, Message: "bad request"}
}

func (m *rejectingModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return "", errors.New("unused")
}

func TestGatewayDoesNotRetryA4xxBackendError(t *testing.T) {
	t.Parallel()

	model := &rejectingModel{}
	gw := llmgateway.New(model, llmgateway.WithBackoff(fastBackoff()))

	_, err := gw.Generate(context.Background(), llmgateway.Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&model.calls))
}

func TestGatewayGivesUpAfterBudgetExhausted(t *testing.T) {
	t.Parallel()

	model := &flakyModel{failTimes: 1000}
	gw := llmgateway.New(model, llmgateway.WithBackoff(fastBackoff()))

	_, err := gw.Generate(context.Background(), llmgateway.Request{Prompt: "hello"})
	require.Error(t, err)
}

func TestMockModelIsDeterministicPerPrompt(t *testing.T) {
	t.Parallel()

	mock := &llmgateway.MockModel{}
	gw := llmgateway.New(mock)

	r1, err := gw.Generate(context.Background(), llmgateway.Request{Prompt: "describe literature review"})
	require.NoError(t, err)
	r2, err := gw.Generate(context.Background(), llmgateway.Request{Prompt: "describe literature review"})
	require.NoError(t, err)
	assert.Equal(t, r1.Text, r2.Text)

	r3, err := gw.Generate(context.Background(), llmgateway.Request{Prompt: "a different prompt"})
	require.NoError(t, err)
	assert.NotEqual(t, r1.Text, r3.Text)
}

func TestMockModelHonorsCannedResponses(t *testing.T) {
	t.Parallel()

	prompt := "summarize methodology"
	digest := sha256Hex(prompt)
	mock := &llmgateway.MockModel{Canned: map[string]string{digest: "fixed answer"}}
	gw := llmgateway.New(mock)

	resp, err := gw.Generate(context.Background(), llmgateway.Request{Prompt: prompt})
	require.NoError(t, err)
	assert.Equal(t, "fixed answer", resp.Text)
}

type concurrencyModel struct {
	inFlight int32
	maxSeen  int32
}

func (m *concurrencyModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		old := atomic.LoadInt32(&m.maxSeen)
		if n <= old || atomic.CompareAndSwapInt32(&m.maxSeen, old, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}, nil
}

func (m *concurrencyModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return "", errors.New("unused")
}

func TestGatewayHonorsConcurrencyBudget(t *testing.T) {
	t.Parallel()

	model := &concurrencyModel{}
	gw := llmgateway.New(model, llmgateway.WithConcurrency(1))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gw.Generate(context.Background(), llmgateway.Request{Prompt: "call"})
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("generate calls did not complete")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&model.maxSeen))
}
