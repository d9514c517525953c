// Package brainstorm runs a multi-turn ideation conversation with the
// model as a cooperative background task. The caller feeds input through
// an inbound queue and polls replies from an outbound queue; a worker
// that sees no input for its idle timeout terminates itself. There is no
// external cancel signal.
package brainstorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/pkg/llm"
)

// DefaultIdleTimeout is how long a worker waits for the next human input
// before giving up on the conversation.
const DefaultIdleTimeout = 10 * time.Minute

var ErrWorkerStopped = errors.New("brainstorm worker has stopped")

type Worker struct {
	llmProvider llm.LLMProvider
	log         logger.ILogger
	idleTimeout time.Duration

	inbound  chan string
	outbound chan string
	done     chan struct{}
}

func NewWorker(llmProvider llm.LLMProvider, log logger.ILogger, idleTimeout time.Duration) *Worker {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Worker{
		llmProvider: llmProvider,
		log:         log,
		idleTimeout: idleTimeout,
		inbound:     make(chan string, 8),
		outbound:    make(chan string, 8),
		done:        make(chan struct{}),
	}
}

// Start launches the conversation loop seeded with the topic. The first
// model reply lands on the outbound queue without any inbound input.
func (w *Worker) Start(ctx context.Context, topic string) {
	go w.run(ctx, topic)
}

// Submit queues one human input for the conversation.
func (w *Worker) Submit(input string) error {
	select {
	case <-w.done:
		return ErrWorkerStopped
	case w.inbound <- input:
		return nil
	default:
		return errors.New("brainstorm inbound queue is full")
	}
}

// Poll waits up to wait for the next model reply. The second return is
// false when nothing arrived in time or the worker has stopped with an
// empty queue.
func (w *Worker) Poll(wait time.Duration) (string, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case reply := <-w.outbound:
		return reply, true
	case <-timer.C:
		return "", false
	case <-w.done:
		// Drain anything queued before the stop
		select {
		case reply := <-w.outbound:
			return reply, true
		default:
			return "", false
		}
	}
}

// Done is closed when the worker terminates.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run(ctx context.Context, topic string) {
	defer close(w.done)

	history := []llm.Message{
		{Role: "system", Content: "You are a brainstorming partner helping explore analytical tasks and the datasets that could support them. Keep replies short and concrete."},
		{Role: "user", Content: fmt.Sprintf("Let's brainstorm around: %s", topic)},
	}

	if !w.respond(ctx, &history) {
		return
	}

	idle := time.NewTimer(w.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("brainstorm", "Worker stopped by context", nil)
			return
		case <-idle.C:
			w.log.Info("brainstorm", "Worker idle timeout reached, terminating", map[string]interface{}{
				"timeout": w.idleTimeout.String(),
			})
			return
		case input := <-w.inbound:
			history = append(history, llm.Message{Role: "user", Content: input})
			if !w.respond(ctx, &history) {
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(w.idleTimeout)
		}
	}
}

// respond asks the model for the next reply and queues it. Returns false
// when the conversation cannot continue.
func (w *Worker) respond(ctx context.Context, history *[]llm.Message) bool {
	reply, err := w.llmProvider.Chat(ctx, *history, llm.WithTemperature(0.8))
	if err != nil {
		w.log.Error("brainstorm", "Model call failed, terminating worker", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	*history = append(*history, llm.Message{Role: "assistant", Content: reply})

	select {
	case w.outbound <- reply:
		return true
	case <-ctx.Done():
		return false
	}
}
