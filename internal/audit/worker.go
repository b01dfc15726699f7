package audit

import (
	"context"
	"log/slog"
)

// Emitter queues events for background publishing so domain operations
// never block on the broker. A full inbox drops the event with a log line;
// the audit stream is best-effort by contract.
type Emitter struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewEmitter(buffer int, logger *slog.Logger) *Emitter {
	return &Emitter{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (e *Emitter) Emit(event Event) {
	select {
	case e.inbox <- event:
	default:
		e.logger.Warn("audit inbox full, dropping event",
			"type", event.Type, "assignment_id", event.AssignmentID)
	}
}

// Publish lets an Emitter stand in wherever a Publisher is expected; the
// queued events reach the real sink through the Worker.
func (e *Emitter) Publish(_ context.Context, event Event) error {
	e.Emit(event)
	return nil
}

func (e *Emitter) Close() {}

// Worker drains the emitter inbox into a publisher.
type Worker struct {
	emitter   *Emitter
	publisher Publisher
	logger    *slog.Logger
}

func NewWorker(emitter *Emitter, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{emitter: emitter, publisher: publisher, logger: logger}
}

// Run publishes queued events until ctx is cancelled. Publish failures are
// logged and skipped so one broker hiccup does not wedge the stream.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.emitter.inbox:
			if err := w.publisher.Publish(ctx, event); err != nil {
				w.logger.Error("publish audit event",
					"type", event.Type, "error", err)
			}
		}
	}
}
