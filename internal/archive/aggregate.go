package archive

import (
	caskerrors "github.com/caskhq/cask/internal/errors"
	"github.com/caskhq/cask/internal/object"
)

// exportReport is one delegate's contribution to the export join.
type exportReport struct {
	Type      object.Type
	Completed []object.Completed
}

// importReport is one delegate's contribution to the import join.
type importReport struct {
	Type    object.Type
	Applied []object.Item
}

// aggregateExports folds per-delegate reports into the per-type progress
// map. A type reporting twice means a delegate misbehaved and is rejected
// rather than silently merged.
func aggregateExports(reports []exportReport) (map[object.Type]ObjectExportProgress, error) {
	perType := make(map[object.Type]ObjectExportProgress, len(reports))
	for _, r := range reports {
		if _, ok := perType[r.Type]; ok {
			return nil, caskerrors.ErrDuplicateReport(r.Type.String())
		}
		perType[r.Type] = ObjectExportProgress{
			Stage:     ObjectComplete,
			Completed: r.Completed,
		}
	}
	return perType, nil
}

// aggregateImports folds per-delegate reports into the per-type progress
// map, moving each type's items from pending to applied.
func aggregateImports(reports []importReport) (map[object.Type]ObjectImportProgress, error) {
	perType := make(map[object.Type]ObjectImportProgress, len(reports))
	for _, r := range reports {
		if _, ok := perType[r.Type]; ok {
			return nil, caskerrors.ErrDuplicateReport(r.Type.String())
		}
		perType[r.Type] = ObjectImportProgress{
			Stage:   ObjectComplete,
			Applied: r.Applied,
		}
	}
	return perType, nil
}
