package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler turns SIGINT/SIGTERM into context cancellation and tells
// the user what happened to their run.
type InterruptHandler struct {
	writer      io.Writer
	cancel      context.CancelFunc
	stopped     chan struct{}
	interrupted bool
	keptLearned bool
	stopOnce    sync.Once
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler that reports to writer (stdout when nil).
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// HandleInterrupts returns a context canceled on the first signal or when
// parent is canceled. keptLearned adds a note that learned keywords were
// already stored. Call Stop once the work finishes.
func (h *InterruptHandler) HandleInterrupts(parent context.Context, keptLearned bool) context.Context {
	ctx, cancel := context.WithCancel(parent)
	stopped := make(chan struct{})

	h.mu.Lock()
	h.cancel = cancel
	h.keptLearned = keptLearned
	h.stopped = stopped
	h.mu.Unlock()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
		case <-parent.Done():
		case <-stopped:
			return
		}

		h.mu.Lock()
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
		h.mu.Unlock()
		cancel()
	}()

	return ctx
}

// Stop releases the signal handler and cancels the derived context without
// printing anything. It is safe to call more than once.
func (h *InterruptHandler) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.stopped != nil {
			close(h.stopped)
		}
		if h.cancel != nil {
			h.cancel()
		}
	})
}

// WasInterrupted reports whether a signal or parent cancellation ended the run.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Categorization interrupted!")
	if h.keptLearned {
		msg += "\n" + FormatInfo("Keywords learned so far have been kept. Re-run the upload to finish the statement.")
	}
	msg += "\n" + FormatInfo("See you later! "+SpiceIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}
