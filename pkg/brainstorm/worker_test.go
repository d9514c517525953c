package brainstorm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	calls atomic.Int32
	err   error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	n := s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("idea %d", n), nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestWorkerProducesSeedReply(t *testing.T) {
	w := NewWorker(&scriptedLLM{}, logger.NewNopLogger(), time.Second)
	w.Start(context.Background(), "election datasets")

	reply, ok := w.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, "idea 1", reply)
}

func TestWorkerConversationRoundTrip(t *testing.T) {
	w := NewWorker(&scriptedLLM{}, logger.NewNopLogger(), time.Second)
	w.Start(context.Background(), "housing data")

	_, ok := w.Poll(time.Second)
	require.True(t, ok)

	require.NoError(t, w.Submit("what about rental prices?"))
	reply, ok := w.Poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, "idea 2", reply)
}

func TestWorkerIdleTimeoutSelfTerminates(t *testing.T) {
	w := NewWorker(&scriptedLLM{}, logger.NewNopLogger(), 50*time.Millisecond)
	w.Start(context.Background(), "topic")

	_, ok := w.Poll(time.Second)
	require.True(t, ok)

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not terminate after idle timeout")
	}

	assert.ErrorIs(t, w.Submit("too late"), ErrWorkerStopped)
}

func TestWorkerModelFailureStopsWorker(t *testing.T) {
	w := NewWorker(&scriptedLLM{err: errors.New("model down")}, logger.NewNopLogger(), time.Second)
	w.Start(context.Background(), "topic")

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not terminate after model failure")
	}

	_, ok := w.Poll(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestWorkerPollTimesOutWithoutInput(t *testing.T) {
	w := NewWorker(&scriptedLLM{}, logger.NewNopLogger(), time.Second)
	w.Start(context.Background(), "topic")

	_, ok := w.Poll(time.Second)
	require.True(t, ok)

	_, ok = w.Poll(20 * time.Millisecond)
	assert.False(t, ok)
}
