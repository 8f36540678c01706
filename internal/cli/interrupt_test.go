package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer lets the handler goroutine and the test share output safely.
type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewInterruptHandler_DefaultsToStdout(t *testing.T) {
	handler := NewInterruptHandler(nil)
	require.NotNil(t, handler)
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestInterruptHandler_ParentCancel(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		notExpected []string
		keepLearned bool
	}{
		{
			name:        "mentions learned keywords",
			keepLearned: true,
			expected:    []string{"Categorization interrupted!", "Keywords learned so far have been kept", "See you later!"},
		},
		{
			name:        "plain message",
			expected:    []string{"Categorization interrupted!", "See you later!"},
			notExpected: []string{"Keywords learned", "Re-run the upload"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &lockedBuffer{}
			handler := NewInterruptHandler(out)

			parent, cancel := context.WithCancel(context.Background())
			ctx := handler.HandleInterrupts(parent, tt.keepLearned)
			cancel()

			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				t.Fatal("derived context was not canceled")
			}
			require.Eventually(t, handler.WasInterrupted, time.Second, 5*time.Millisecond)
			require.Eventually(t, func() bool { return out.String() != "" }, time.Second, 5*time.Millisecond)

			for _, want := range tt.expected {
				assert.Contains(t, out.String(), want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, out.String(), unwanted)
			}
			assert.Equal(t, 1, strings.Count(out.String(), "Categorization interrupted!"))
		})
	}
}

func TestInterruptHandler_StopIsSilent(t *testing.T) {
	out := &lockedBuffer{}
	handler := NewInterruptHandler(out)

	ctx := handler.HandleInterrupts(context.Background(), true)
	handler.Stop()
	handler.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be canceled after Stop")
	}

	time.Sleep(20 * time.Millisecond)
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, out.String())
}
