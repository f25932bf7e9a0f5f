package acquire

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mtlprog/condoexport/internal/cache"
)

// Source tells whether a resource came from the cache or the network.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// Progress receives one event per resource and one per finished stage.
type Progress interface {
	Resource(stage string, key cache.Key, src Source, n, total int)
	StageDone(stage string, count int)
}

// DotProgress prints a dot per resource and a newline per stage.
type DotProgress struct {
	w io.Writer
}

// NewDotProgress creates a DotProgress writing to w.
func NewDotProgress(w io.Writer) *DotProgress {
	return &DotProgress{w: w}
}

func (p *DotProgress) Resource(_ string, _ cache.Key, _ Source, _, _ int) {
	fmt.Fprint(p.w, ".")
}

func (p *DotProgress) StageDone(stage string, count int) {
	fmt.Fprintf(p.w, " %s (%d)\n", stage, count)
}

// LogProgress logs one line per resource.
type LogProgress struct {
	logger *slog.Logger
}

// NewLogProgress creates a LogProgress. A nil logger uses slog.Default.
func NewLogProgress(logger *slog.Logger) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger}
}

func (p *LogProgress) Resource(stage string, key cache.Key, src Source, n, total int) {
	p.logger.Info("resource", "stage", stage, "key", string(key), "source", string(src), "progress", fmt.Sprintf("%d/%d", n, total))
}

func (p *LogProgress) StageDone(stage string, count int) {
	p.logger.Info("stage completed", "stage", stage, "resources", count)
}

type noProgress struct{}

func (noProgress) Resource(string, cache.Key, Source, int, int) {}
func (noProgress) StageDone(string, int)                        {}
