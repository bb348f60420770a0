// Package cli implements the cask command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/caskhq/cask/internal/archive"
	"github.com/caskhq/cask/internal/config"
	"github.com/caskhq/cask/internal/delegate"
	"github.com/caskhq/cask/internal/eventlog"
	"github.com/caskhq/cask/internal/producer"
)

// projectContext bundles everything a command needs from the project on
// disk: its root, config, and event store.
type projectContext struct {
	Root   string
	Config *config.Config
	Store  *eventlog.Store
}

// loadProject locates the enclosing cask project and opens its state.
// Environment and config-file overrides picked up by viper win over the
// persisted project config.
func loadProject() (*projectContext, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	root, ok := config.FindProjectRoot(cwd)
	if !ok {
		return nil, errNotInitialized()
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)

	store, err := eventlog.Open(config.DBPath(root))
	if err != nil {
		return nil, err
	}
	return &projectContext{Root: root, Config: cfg, Store: store}, nil
}

// applyOverrides layers viper-managed settings over the persisted config.
func applyOverrides(cfg *config.Config) {
	if viper.IsSet("export_dir") {
		cfg.ExportDir = viper.GetString("export_dir")
	}
	if viper.IsSet("workspace_root") {
		cfg.WorkspaceRoot = viper.GetString("workspace_root")
	}
	if viper.IsSet("export_batch_size") {
		cfg.ExportBatchSize = viper.GetInt64("export_batch_size")
	}
	if viper.IsSet("keep_workspace") {
		cfg.KeepWorkspace = viper.GetBool("keep_workspace")
	}
}

// Close releases the project's open resources.
func (p *projectContext) Close() {
	_ = p.Store.Close()
}

// newPipeline wires the archive pipeline for this project.
func (p *projectContext) newPipeline(keepWorkspace bool) *archive.Pipeline {
	reg := delegate.NewRegistry()
	// Registration of the built-in types; Register only fails on duplicates.
	_ = reg.Register(eventlog.NewDelegate(p.Store, p.Config.ExportBatchSize, newLogger()))

	return archive.New(reg, newLogger(),
		archive.WithProducer(producer.Collect(Version)),
		archive.WithWorkspaceRoot(p.Config.WorkspaceRoot),
		archive.WithExportDir(p.Config.ResolveExportDir(p.Root)),
		archive.WithKeepWorkspace(keepWorkspace || p.Config.KeepWorkspace),
	)
}
