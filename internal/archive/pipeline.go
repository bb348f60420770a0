package archive

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/caskhq/cask/internal/delegate"
	"github.com/caskhq/cask/internal/packer"
	"github.com/caskhq/cask/internal/workspace"
)

// Packer seals a staged workspace into a container file and unpacks one
// back out. Satisfied by packer.TarGz.
type Packer interface {
	Pack(srcDir, dstFile string) error
	Unpack(srcFile, dstDir string) error
}

// Pipeline runs exports and imports. It is safe for concurrent use; every
// invocation allocates its own workspace.
type Pipeline struct {
	registry      *delegate.Registry
	packer        Packer
	producer      map[string]string
	workspaceRoot string
	exportDir     string
	keepWorkspace bool
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPacker overrides the container format implementation.
func WithPacker(p Packer) Option {
	return func(pl *Pipeline) { pl.packer = p }
}

// WithProducer sets the producer metadata sealed into manifests.
func WithProducer(producer map[string]string) Option {
	return func(pl *Pipeline) { pl.producer = producer }
}

// WithWorkspaceRoot sets where staging workspaces are allocated.
func WithWorkspaceRoot(root string) Option {
	return func(pl *Pipeline) { pl.workspaceRoot = root }
}

// WithExportDir sets the default directory for export output files.
func WithExportDir(dir string) Option {
	return func(pl *Pipeline) { pl.exportDir = dir }
}

// WithKeepWorkspace disables workspace cleanup, leaving staged files on
// disk for inspection.
func WithKeepWorkspace(keep bool) Option {
	return func(pl *Pipeline) { pl.keepWorkspace = keep }
}

// WithClock overrides the time source used for output naming and manifest
// timestamps. Tests use this for deterministic names.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// New creates a pipeline over the given delegate registry.
func New(registry *delegate.Registry, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		registry: registry,
		packer:   packer.New(),
		producer: map[string]string{"tool": "cask"},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// outputPath derives the container path for an export. The name is always
// generated: a timestamp for humans plus a short unique suffix so rapid
// consecutive exports never collide.
func (p *Pipeline) outputPath(req ExportRequest) string {
	dir := p.exportDir
	if req.TargetFile != "" {
		dir = filepath.Dir(req.TargetFile)
	}
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("cask-%s-%s.tar.gz",
		p.now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
	return filepath.Join(dir, name)
}

// releaseWorkspace cleans up a staging directory unless the pipeline was
// told to keep it.
func (p *Pipeline) releaseWorkspace(ws *workspace.Workspace) {
	if p.keepWorkspace {
		p.logger.Info("keeping workspace", "path", ws.Path())
		return
	}
	if err := ws.Release(); err != nil {
		p.logger.Warn("workspace cleanup failed", "path", ws.Path(), "error", err)
	}
}

// sendEvent delivers one event, or reports false when the context was
// cancelled before the consumer took it. A false return stops the pipeline.
func sendEvent[E any](ctx context.Context, events chan<- E, ev E) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
