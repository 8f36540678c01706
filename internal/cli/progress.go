package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/spice-statements/internal/service"
)

// ProgressBar renders categorization progress in the terminal while forwarding
// every update to the upload store.
type ProgressBar struct {
	writer  io.Writer
	uploads service.UploadStore
	bar     *progressbar.ProgressBar
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar backed by the given upload store.
func NewProgressBar(writer io.Writer, uploads service.UploadStore) *ProgressBar {
	if writer == nil {
		writer = os.Stderr
	}
	return &ProgressBar{
		writer:  writer,
		uploads: uploads,
	}
}

// IncrementProcessed implements service.ProgressTracker.
func (p *ProgressBar) IncrementProcessed(ctx context.Context, uploadID string, n int) error {
	if err := p.uploads.IncrementProcessed(ctx, uploadID, n); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		upload, err := p.uploads.GetUpload(ctx, uploadID)
		if err != nil {
			return fmt.Errorf("failed to load upload for progress: %w", err)
		}
		p.init(upload.TotalItems)
	}

	if err := p.bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	return nil
}

// Finish completes the bar if it was started.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

func (p *ProgressBar) init(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Categorizing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
