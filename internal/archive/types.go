// Package archive implements the staged export/import pipeline that bundles
// per-type record collections into one portable container and back.
package archive

import (
	caskerrors "github.com/caskhq/cask/internal/errors"
	"github.com/caskhq/cask/internal/object"
)

// Stage is a pipeline phase exposed to the caller via progress snapshots.
type Stage string

const (
	// Export stages, in order.

	// StageBuilding means all per-type exports finished staging.
	StageBuilding Stage = "BUILDING"
	// StageBuildingManifest means the manifest was sealed into the workspace.
	StageBuildingManifest Stage = "BUILDING_MANIFEST"

	// Import stages, in order.

	// StageExtracting means the container was unpacked into the workspace.
	StageExtracting Stage = "EXTRACTING"
	// StageValidating means the manifest was parsed and checked against the request.
	StageValidating Stage = "VALIDATING"
	// StageImporting means all per-type imports finished applying.
	StageImporting Stage = "IMPORTING"

	// StageComplete terminates both pipelines.
	StageComplete Stage = "COMPLETE"
)

// ObjectStage is the per-type progress state inside a snapshot.
type ObjectStage string

const (
	// ObjectPending means the type's items are known but not yet applied.
	ObjectPending ObjectStage = "PENDING"
	// ObjectComplete means the type's delegate reported completion.
	ObjectComplete ObjectStage = "COMPLETE"
)

// ExportRequest asks the pipeline to bundle the given object types.
type ExportRequest struct {
	// TargetFile is an informational output hint. When set, its directory
	// is used as the export directory; the file name is always derived by
	// the pipeline.
	TargetFile string
	// Objects is the ordered, non-empty set of types to export.
	Objects []object.Type
}

// ImportRequest asks the pipeline to unpack and apply a container.
type ImportRequest struct {
	// SourceFile is the path of an existing container.
	SourceFile string
	// Objects is the ordered, non-empty set of types to import.
	Objects []object.Type
}

// validateObjects enforces the request precondition before any I/O: a
// non-empty object list without duplicates.
func validateObjects(objects []object.Type) error {
	if len(objects) == 0 {
		return caskerrors.ErrEmptyRequest()
	}
	seen := make(map[object.Type]bool, len(objects))
	for _, t := range objects {
		if seen[t] {
			return caskerrors.ErrDuplicateRequest(t.String())
		}
		seen[t] = true
	}
	return nil
}

// ObjectExportProgress is one type's contribution to an export snapshot.
type ObjectExportProgress struct {
	Stage     ObjectStage        `json:"stage"`
	Completed []object.Completed `json:"completed,omitempty"`
}

// ObjectImportProgress is one type's contribution to an import snapshot.
// Pending holds the manifest items not yet applied; once the delegate
// reports completion they move to Applied.
type ObjectImportProgress struct {
	Stage   ObjectStage   `json:"stage"`
	Pending []object.Item `json:"pending,omitempty"`
	Applied []object.Item `json:"applied,omitempty"`
}

// ExportProgress is one snapshot of a running export. PerType holds exactly
// the requested types, each exactly once. OutputFile is set only on the
// terminal COMPLETE snapshot.
type ExportProgress struct {
	Stage      Stage                                `json:"stage"`
	PerType    map[object.Type]ObjectExportProgress `json:"per_type"`
	OutputFile string                               `json:"output_file,omitempty"`
}

// ImportProgress is one snapshot of a running import.
type ImportProgress struct {
	Stage      Stage                                `json:"stage"`
	PerType    map[object.Type]ObjectImportProgress `json:"per_type"`
	SourceFile string                               `json:"source_file"`
}

// ExportEvent is one element of the finite export progress stream. Exactly
// one terminal event is delivered: either a COMPLETE snapshot or Err set.
type ExportEvent struct {
	Progress ExportProgress
	Err      error
}

// ImportEvent is one element of the finite import progress stream.
type ImportEvent struct {
	Progress ImportProgress
	Err      error
}
