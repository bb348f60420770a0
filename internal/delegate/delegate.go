// Package delegate defines the capability every object type implementation
// exposes to the archive pipeline, and the registry the pipeline dispatches
// through. The orchestrator is polymorphic over this contract: adding an
// object type means registering an implementation, never touching the
// pipeline itself.
package delegate

import (
	"context"

	"github.com/caskhq/cask/internal/object"
)

// ExportParams carries what a delegate needs to stage its records.
type ExportParams struct {
	// Workspace is the staging directory the delegate writes into.
	// Delegates own a subdirectory named after their object type.
	Workspace string
}

// ImportParams carries what a delegate needs to apply staged records.
type ImportParams struct {
	// Workspace is the directory the container was extracted into.
	Workspace string
	// Pending is this type's manifest items, in manifest order.
	Pending []object.Item
}

// ExportResult is a delegate's terminal export report.
type ExportResult struct {
	// Completed lists the staged files, in the order they were produced.
	Completed []object.Completed
}

// ImportResult is a delegate's terminal import report.
type ImportResult struct {
	// Applied lists the manifest items the delegate committed.
	Applied []object.Item
}

// Delegate exports and imports one object type's records.
type Delegate interface {
	// Type identifies the object type this delegate owns.
	Type() object.Type

	// ExportObjects stages this type's records under params.Workspace and
	// reports the files it produced.
	ExportObjects(ctx context.Context, params ExportParams) (*ExportResult, error)

	// ImportObjects applies params.Pending from params.Workspace and
	// reports the items it committed.
	ImportObjects(ctx context.Context, params ImportParams) (*ImportResult, error)
}
