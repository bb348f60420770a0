package archive

import (
	"context"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/caskhq/cask/internal/delegate"
	caskerrors "github.com/caskhq/cask/internal/errors"
	"github.com/caskhq/cask/internal/manifest"
	"github.com/caskhq/cask/internal/workspace"
)

// Export runs the export pipeline and returns its progress stream. The
// stream is finite: one snapshot per completed stage, ending with exactly
// one terminal event (a COMPLETE snapshot, or Err set). Cancelling ctx
// stops delivery of further events.
func (p *Pipeline) Export(ctx context.Context, req ExportRequest) <-chan ExportEvent {
	events := make(chan ExportEvent)
	go func() {
		defer close(events)
		p.runExport(ctx, req, events)
	}()
	return events
}

func (p *Pipeline) runExport(ctx context.Context, req ExportRequest, events chan<- ExportEvent) {
	// Reject unusable requests before any workspace or delegate I/O.
	if err := validateObjects(req.Objects); err != nil {
		sendEvent(ctx, events, ExportEvent{Err: err})
		return
	}

	ws, err := workspace.Allocate(p.workspaceRoot)
	if err != nil {
		sendEvent(ctx, events, ExportEvent{Err: caskerrors.ErrContainerFailed("workspace", err)})
		return
	}
	defer p.releaseWorkspace(ws)

	p.logger.Info("export started", "objects", req.Objects, "workspace", ws.Path())

	// Fan out one goroutine per requested type; the join is fail-fast and
	// the shared context cancels siblings on first failure.
	reports := make([]exportReport, len(req.Objects))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range req.Objects {
		g.Go(func() error {
			d, ok := p.registry.Resolve(t)
			if !ok {
				return caskerrors.ErrNotSupported(t.String())
			}
			res, err := d.ExportObjects(gctx, delegate.ExportParams{Workspace: ws.Path()})
			if err != nil {
				if caskerrors.AsCaskError(err) != nil {
					return err
				}
				return caskerrors.ErrDelegateFailed(t.String(), err)
			}
			reports[i] = exportReport{Type: t, Completed: res.Completed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		sendEvent(ctx, events, ExportEvent{Err: err})
		return
	}

	perType, err := aggregateExports(reports)
	if err != nil {
		sendEvent(ctx, events, ExportEvent{Err: err})
		return
	}
	if !sendEvent(ctx, events, ExportEvent{Progress: ExportProgress{
		Stage:   StageBuilding,
		PerType: maps.Clone(perType),
	}}) {
		return
	}

	// Seal the manifest after every delegate finished, so it describes the
	// workspace exactly as packed.
	groups := make([]manifest.Group, len(req.Objects))
	for i, t := range req.Objects {
		groups[i] = manifest.Group{Type: t, Completed: perType[t].Completed}
	}
	man, err := manifest.Build(ws.Path(), groups, p.producer, p.now())
	if err != nil {
		sendEvent(ctx, events, ExportEvent{Err: caskerrors.ErrContainerFailed("manifest", err)})
		return
	}
	if err := man.Write(ws.Path()); err != nil {
		sendEvent(ctx, events, ExportEvent{Err: caskerrors.ErrContainerFailed("manifest", err)})
		return
	}
	if !sendEvent(ctx, events, ExportEvent{Progress: ExportProgress{
		Stage:   StageBuildingManifest,
		PerType: maps.Clone(perType),
	}}) {
		return
	}

	out := p.outputPath(req)
	if err := p.packer.Pack(ws.Path(), out); err != nil {
		sendEvent(ctx, events, ExportEvent{Err: caskerrors.ErrContainerFailed("pack", err)})
		return
	}

	p.logger.Info("export complete", "output", out, "items", man.Count)
	sendEvent(ctx, events, ExportEvent{Progress: ExportProgress{
		Stage:      StageComplete,
		PerType:    maps.Clone(perType),
		OutputFile: out,
	}})
}
