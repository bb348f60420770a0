package archive_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caskhq/cask/internal/archive"
	"github.com/caskhq/cask/internal/delegate"
	caskerrors "github.com/caskhq/cask/internal/errors"
	"github.com/caskhq/cask/internal/eventlog"
	"github.com/caskhq/cask/internal/manifest"
	"github.com/caskhq/cask/internal/object"
	"github.com/caskhq/cask/internal/packer"
)

// failingDelegate always errors, for exercising failure propagation.
type failingDelegate struct {
	t object.Type
}

func (f *failingDelegate) Type() object.Type { return f.t }

func (f *failingDelegate) ExportObjects(context.Context, delegate.ExportParams) (*delegate.ExportResult, error) {
	return nil, errors.New("disk on fire")
}

func (f *failingDelegate) ImportObjects(context.Context, delegate.ImportParams) (*delegate.ImportResult, error) {
	return nil, errors.New("disk on fire")
}

func newLogStore(t *testing.T, n int) *eventlog.Store {
	t.Helper()
	s, err := eventlog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, s.Add(context.Background(), &eventlog.Event{
			ID:        string(rune('a'+i)) + "-event",
			Kind:      "interaction",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	return s
}

func newLogRegistry(t *testing.T, s *eventlog.Store) *delegate.Registry {
	t.Helper()
	reg := delegate.NewRegistry()
	require.NoError(t, reg.Register(eventlog.NewDelegate(s, 0, nil)))
	return reg
}

func newTestPipeline(t *testing.T, reg *delegate.Registry, opts ...archive.Option) *archive.Pipeline {
	t.Helper()
	base := []archive.Option{
		archive.WithWorkspaceRoot(t.TempDir()),
		archive.WithExportDir(t.TempDir()),
	}
	return archive.New(reg, nil, append(base, opts...)...)
}

func drainExport(t *testing.T, events <-chan archive.ExportEvent) []archive.ExportEvent {
	t.Helper()
	var out []archive.ExportEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestExportEmptyRequest(t *testing.T) {
	t.Parallel()
	wsRoot := t.TempDir()
	p := archive.New(newLogRegistry(t, newLogStore(t, 0)), nil,
		archive.WithWorkspaceRoot(wsRoot))

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{}))
	require.Len(t, events, 1)
	require.ErrorIs(t, events[0].Err, &caskerrors.CaskError{Code: caskerrors.CodeRequestInvalid})

	// Rejected before any I/O: no workspace was allocated.
	entries, err := os.ReadDir(wsRoot)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExportDuplicateType(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(t, newLogRegistry(t, newLogStore(t, 1)))

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log, object.Log},
	}))
	require.Len(t, events, 1)
	require.ErrorIs(t, events[0].Err, &caskerrors.CaskError{Code: caskerrors.CodeRequestInvalid})
}

func TestExportUnsupportedType(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(t, newLogRegistry(t, newLogStore(t, 1)))

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log, object.Profile},
	}))

	last := events[len(events)-1]
	require.Error(t, last.Err)
	caskErr := caskerrors.AsCaskError(last.Err)
	require.NotNil(t, caskErr)
	require.Equal(t, caskerrors.CodeNotSupported, caskErr.Code)
}

func TestExportDelegateFailure(t *testing.T) {
	t.Parallel()
	reg := delegate.NewRegistry()
	require.NoError(t, reg.Register(&failingDelegate{t: object.Log}))
	p := newTestPipeline(t, reg)

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log},
	}))
	require.Len(t, events, 1)
	caskErr := caskerrors.AsCaskError(events[0].Err)
	require.NotNil(t, caskErr)
	require.Equal(t, caskerrors.CodeDelegateFailed, caskErr.Code)
	require.Contains(t, caskErr.Error(), "disk on fire")
}

func TestExportStageOrderAndTerminal(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(t, newLogRegistry(t, newLogStore(t, 3)))

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log},
	}))

	var stages []archive.Stage
	for _, ev := range events {
		require.NoError(t, ev.Err)
		stages = append(stages, ev.Progress.Stage)

		// Every snapshot carries exactly the requested types.
		require.Len(t, ev.Progress.PerType, 1)
		require.Contains(t, ev.Progress.PerType, object.Log)
	}
	require.Equal(t, []archive.Stage{
		archive.StageBuilding,
		archive.StageBuildingManifest,
		archive.StageComplete,
	}, stages)

	last := events[len(events)-1]
	require.NotEmpty(t, last.Progress.OutputFile)
	require.FileExists(t, last.Progress.OutputFile)
}

func TestExportManifestMatchesContents(t *testing.T) {
	t.Parallel()
	p := newTestPipeline(t, newLogRegistry(t, newLogStore(t, 5)))

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log},
	}))
	out := events[len(events)-1].Progress.OutputFile

	// Crack the container open and check the sealed manifest against it.
	dst := t.TempDir()
	require.NoError(t, packer.New().Unpack(out, dst))

	man, err := manifest.Read(dst)
	require.NoError(t, err)
	require.Equal(t, manifest.FormatID, man.FormatID)
	require.Equal(t, len(man.Items), man.Count)
	require.NotEmpty(t, man.ItemsFor(object.Log))
	for _, item := range man.Items {
		require.Equal(t, object.Log, item.Type)
		require.Positive(t, item.Size)
	}
}

func TestExportCleansWorkspace(t *testing.T) {
	t.Parallel()
	wsRoot := t.TempDir()
	p := archive.New(newLogRegistry(t, newLogStore(t, 2)), nil,
		archive.WithWorkspaceRoot(wsRoot),
		archive.WithExportDir(t.TempDir()))

	drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log},
	}))

	entries, err := os.ReadDir(wsRoot)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExportKeepsWorkspace(t *testing.T) {
	t.Parallel()
	wsRoot := t.TempDir()
	p := archive.New(newLogRegistry(t, newLogStore(t, 2)), nil,
		archive.WithWorkspaceRoot(wsRoot),
		archive.WithExportDir(t.TempDir()),
		archive.WithKeepWorkspace(true))

	drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log},
	}))

	entries, err := os.ReadDir(wsRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestExportDeterministicClock(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 8, 20, 15, 4, 5, 0, time.UTC)
	p := newTestPipeline(t, newLogRegistry(t, newLogStore(t, 1)),
		archive.WithClock(func() time.Time { return fixed }))

	events := drainExport(t, p.Export(context.Background(), archive.ExportRequest{
		Objects: []object.Type{object.Log},
	}))
	out := events[len(events)-1].Progress.OutputFile
	require.Contains(t, out, "cask-20260820-150405-")
}
