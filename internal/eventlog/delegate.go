package eventlog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caskhq/cask/internal/delegate"
	"github.com/caskhq/cask/internal/object"
)

// DefaultBatchSize is how many events go into one staged file.
const DefaultBatchSize = 1000

// Delegate exports and imports event-log records for the archive pipeline.
type Delegate struct {
	store     *Store
	batchSize int64
	logger    *slog.Logger
}

// NewDelegate creates the event-log delegate. A batchSize <= 0 falls back
// to DefaultBatchSize.
func NewDelegate(store *Store, batchSize int64, logger *slog.Logger) *Delegate {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Delegate{store: store, batchSize: batchSize, logger: logger}
}

// Type identifies the object type this delegate owns.
func (d *Delegate) Type() object.Type {
	return object.Log
}

// ExportObjects stages all stored events as gzip-compressed NDJSON batch
// files under <workspace>/log/. At least one file is always produced, even
// when the store is empty, so a round trip of an empty store stays valid.
func (d *Delegate) ExportObjects(ctx context.Context, params delegate.ExportParams) (*delegate.ExportResult, error) {
	dir := filepath.Join(params.Workspace, object.Log.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	var (
		completed []object.Completed
		offset    int64
		batch     = 1
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		events, err := d.store.Page(ctx, offset, d.batchSize)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 && batch > 1 {
			break
		}

		name := fmt.Sprintf("%s/events-%04d.ndjson.gz", object.Log, batch)
		if err := writeBatch(filepath.Join(params.Workspace, filepath.FromSlash(name)), events); err != nil {
			return nil, err
		}
		completed = append(completed, object.Completed{
			FileName:        name,
			ContentEncoding: object.EncodingGzip,
		})
		d.logger.Debug("staged event batch", "file", name, "events", len(events))

		offset += int64(len(events))
		batch++
		if int64(len(events)) < d.batchSize {
			break
		}
	}

	return &delegate.ExportResult{Completed: completed}, nil
}

// writeBatch writes one gzip NDJSON batch file.
func writeBatch(path string, events []Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create batch file: %w", err)
	}
	gw := gzip.NewWriter(f)
	enc := json.NewEncoder(gw)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			_ = gw.Close()
			_ = f.Close()
			return fmt.Errorf("encode event: %w", err)
		}
	}
	if err := gw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize batch gzip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close batch file: %w", err)
	}
	return nil
}

// ImportObjects replays the pending manifest items into the store. Events
// keep their original IDs, so re-importing the same container is a no-op.
func (d *Delegate) ImportObjects(ctx context.Context, params delegate.ImportParams) (*delegate.ImportResult, error) {
	for _, item := range params.Pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := d.importItem(ctx, params.Workspace, item)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", item.FileName, err)
		}
		d.logger.Debug("applied event batch", "file", item.FileName, "events", n)
	}
	return &delegate.ImportResult{Applied: params.Pending}, nil
}

func (d *Delegate) importItem(ctx context.Context, workspace string, item object.Item) (int, error) {
	f, err := os.Open(filepath.Join(workspace, filepath.FromSlash(item.FileName)))
	if err != nil {
		return 0, fmt.Errorf("open staged file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var scanner *bufio.Scanner
	switch item.ContentEncoding {
	case object.EncodingGzip:
		gr, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("read gzip: %w", err)
		}
		defer func() { _ = gr.Close() }()
		scanner = bufio.NewScanner(gr)
	case object.EncodingIdentity:
		scanner = bufio.NewScanner(f)
	default:
		return 0, fmt.Errorf("unknown encoding %q", item.ContentEncoding)
	}
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var applied int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return applied, fmt.Errorf("decode event: %w", err)
		}
		if err := d.store.Add(ctx, &ev); err != nil {
			return applied, err
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("read staged file: %w", err)
	}
	return applied, nil
}
