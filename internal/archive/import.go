package archive

import (
	"context"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/caskhq/cask/internal/delegate"
	caskerrors "github.com/caskhq/cask/internal/errors"
	"github.com/caskhq/cask/internal/manifest"
	"github.com/caskhq/cask/internal/object"
	"github.com/caskhq/cask/internal/workspace"
)

// importState is the accumulator threaded through the import stages. Each
// stage reads what earlier stages produced and adds its own results.
type importState struct {
	ws       *workspace.Workspace
	manifest *manifest.Manifest
	perType  map[object.Type]ObjectImportProgress
}

// importStage is one named step in the fixed import sequence.
type importStage struct {
	stage Stage
	run   func(ctx context.Context, req ImportRequest, st *importState) error
}

// Import runs the import pipeline and returns its progress stream. Stages
// run in a fixed order: extract, validate, apply. The stream is finite and
// ends with exactly one terminal event.
func (p *Pipeline) Import(ctx context.Context, req ImportRequest) <-chan ImportEvent {
	events := make(chan ImportEvent)
	go func() {
		defer close(events)
		p.runImport(ctx, req, events)
	}()
	return events
}

func (p *Pipeline) runImport(ctx context.Context, req ImportRequest, events chan<- ImportEvent) {
	if err := validateObjects(req.Objects); err != nil {
		sendEvent(ctx, events, ImportEvent{Err: err})
		return
	}

	ws, err := workspace.Allocate(p.workspaceRoot)
	if err != nil {
		sendEvent(ctx, events, ImportEvent{Err: caskerrors.ErrContainerFailed("workspace", err)})
		return
	}
	defer p.releaseWorkspace(ws)

	p.logger.Info("import started", "source", req.SourceFile, "objects", req.Objects)

	// Every snapshot carries all requested types, so seed them before the
	// first stage has anything to report.
	st := &importState{
		ws:      ws,
		perType: make(map[object.Type]ObjectImportProgress, len(req.Objects)),
	}
	for _, t := range req.Objects {
		st.perType[t] = ObjectImportProgress{Stage: ObjectPending}
	}

	stages := []importStage{
		{StageExtracting, p.stageExtract},
		{StageValidating, p.stageValidate},
		{StageImporting, p.stageApply},
	}
	for _, s := range stages {
		if err := s.run(ctx, req, st); err != nil {
			sendEvent(ctx, events, ImportEvent{Err: err})
			return
		}
		if !sendEvent(ctx, events, ImportEvent{Progress: ImportProgress{
			Stage:      s.stage,
			PerType:    maps.Clone(st.perType),
			SourceFile: req.SourceFile,
		}}) {
			return
		}
	}

	p.logger.Info("import complete", "source", req.SourceFile, "items", st.manifest.Count)
	sendEvent(ctx, events, ImportEvent{Progress: ImportProgress{
		Stage:      StageComplete,
		PerType:    maps.Clone(st.perType),
		SourceFile: req.SourceFile,
	}})
}

// stageExtract unpacks the container into the workspace.
func (p *Pipeline) stageExtract(_ context.Context, req ImportRequest, st *importState) error {
	if err := p.packer.Unpack(req.SourceFile, st.ws.Path()); err != nil {
		return caskerrors.ErrContainerFailed("unpack", err)
	}
	return nil
}

// stageValidate reads the manifest and checks it covers every requested
// type, recording each type's pending items.
func (p *Pipeline) stageValidate(_ context.Context, req ImportRequest, st *importState) error {
	man, err := manifest.Read(st.ws.Path())
	if err != nil {
		return err
	}
	if err := man.Validate(req.Objects); err != nil {
		return err
	}
	st.manifest = man
	for _, t := range req.Objects {
		st.perType[t] = ObjectImportProgress{
			Stage:   ObjectPending,
			Pending: man.ItemsFor(t),
		}
	}
	return nil
}

// stageApply fans the pending items out to the per-type delegates and
// joins their results, fail-fast.
func (p *Pipeline) stageApply(ctx context.Context, req ImportRequest, st *importState) error {
	reports := make([]importReport, len(req.Objects))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range req.Objects {
		g.Go(func() error {
			d, ok := p.registry.Resolve(t)
			if !ok {
				return caskerrors.ErrNotSupported(t.String())
			}
			res, err := d.ImportObjects(gctx, delegate.ImportParams{
				Workspace: st.ws.Path(),
				Pending:   st.perType[t].Pending,
			})
			if err != nil {
				if caskerrors.AsCaskError(err) != nil {
					return err
				}
				return caskerrors.ErrDelegateFailed(t.String(), err)
			}
			reports[i] = importReport{Type: t, Applied: res.Applied}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	perType, err := aggregateImports(reports)
	if err != nil {
		return err
	}
	st.perType = perType
	return nil
}
