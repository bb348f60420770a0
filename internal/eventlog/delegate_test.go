package eventlog

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caskhq/cask/internal/delegate"
	"github.com/caskhq/cask/internal/object"
)

func TestExportObjectsBatches(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	addEvents(t, s, 5)

	d := NewDelegate(s, 2, nil)
	ws := t.TempDir()

	res, err := d.ExportObjects(context.Background(), delegate.ExportParams{Workspace: ws})
	require.NoError(t, err)

	// 5 events in batches of 2 = 3 files.
	require.Len(t, res.Completed, 3)
	for i, c := range res.Completed {
		require.Equal(t, object.EncodingGzip, c.ContentEncoding)
		require.True(t, strings.HasPrefix(c.FileName, "log/events-"), "file %d = %s", i, c.FileName)

		_, statErr := os.Stat(filepath.Join(ws, filepath.FromSlash(c.FileName)))
		require.NoError(t, statErr)
	}
}

func TestExportObjectsEmptyStore(t *testing.T) {
	t.Parallel()
	d := NewDelegate(newTestStore(t), 0, nil)
	ws := t.TempDir()

	res, err := d.ExportObjects(context.Background(), delegate.ExportParams{Workspace: ws})
	require.NoError(t, err)

	// An empty store still stages one (empty) batch so the manifest has an
	// item for the type and a round trip stays importable.
	require.Len(t, res.Completed, 1)
}

func TestExportObjectsBatchContents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	want := addEvents(t, s, 3)

	d := NewDelegate(s, 10, nil)
	ws := t.TempDir()

	res, err := d.ExportObjects(context.Background(), delegate.ExportParams{Workspace: ws})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)

	f, err := os.Open(filepath.Join(ws, filepath.FromSlash(res.Completed[0].FileName)))
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)

	content, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.Equal(t, len(want), strings.Count(string(content), "\n"))
	require.Contains(t, string(content), want[0].ID)
}

func TestImportObjectsRoundTrip(t *testing.T) {
	t.Parallel()
	src := newTestStore(t)
	want := addEvents(t, src, 7)

	ws := t.TempDir()
	exp := NewDelegate(src, 3, nil)
	res, err := exp.ExportObjects(context.Background(), delegate.ExportParams{Workspace: ws})
	require.NoError(t, err)

	// Promote the completed files to manifest items the way the pipeline does.
	pending := make([]object.Item, len(res.Completed))
	for i, c := range res.Completed {
		pending[i] = object.Item{
			Type:            object.Log,
			FileName:        c.FileName,
			ContentEncoding: c.ContentEncoding,
		}
	}

	dst := newTestStore(t)
	imp := NewDelegate(dst, 0, nil)
	impRes, err := imp.ImportObjects(context.Background(), delegate.ImportParams{
		Workspace: ws,
		Pending:   pending,
	})
	require.NoError(t, err)
	require.Equal(t, pending, impRes.Applied)

	n, err := dst.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(len(want)), n)

	got, err := dst.Page(context.Background(), 0, int64(len(want)))
	require.NoError(t, err)
	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID)
	}
}

func TestImportObjectsMissingFile(t *testing.T) {
	t.Parallel()
	d := NewDelegate(newTestStore(t), 0, nil)

	_, err := d.ImportObjects(context.Background(), delegate.ImportParams{
		Workspace: t.TempDir(),
		Pending: []object.Item{{
			Type:            object.Log,
			FileName:        "log/events-0001.ndjson.gz",
			ContentEncoding: object.EncodingGzip,
		}},
	})
	require.Error(t, err)
}
