package dataset

import (
	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
)

// dropWarnRatio is the fraction of dropped rows above which a
// DroppedRowsWarning is raised.
const dropWarnRatio = 0.5

// DropIncomplete returns a dataset holding only the records with no missing
// field in any column. Order is preserved and surviving records are shared,
// not copied. The input is left untouched.
func DropIncomplete(ds *Dataset) *Dataset {
	kept := make([]Record, 0, len(ds.records))
	for _, r := range ds.records {
		if !r.HasMissing() {
			kept = append(kept, r)
		}
	}
	reportDropped(ds, len(ds.records)-len(kept), nil)
	return ds.derive(kept)
}

// DropIncompleteSubset is DropIncomplete restricted to the named columns.
func DropIncompleteSubset(ds *Dataset, columns []string) (*Dataset, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := ds.index[c]
		if !ok {
			return nil, errors.NewSchemaError("DropIncompleteSubset", c, "column not found")
		}
		idx[i] = j
	}

	kept := make([]Record, 0, len(ds.records))
	for _, r := range ds.records {
		complete := true
		for _, j := range idx {
			if r.values[j].Missing {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, r)
		}
	}
	reportDropped(ds, len(ds.records)-len(kept), columns)
	return ds.derive(kept), nil
}

func reportDropped(ds *Dataset, dropped int, subset []string) {
	total := len(ds.records)
	logger := log.GetLoggerWithName("dataset")
	fields := []any{
		log.OperationKey, log.OperationClean,
		log.SourceKey, ds.source,
		log.SamplesKey, total - dropped,
		log.DroppedRowsKey, dropped,
	}
	if subset != nil {
		fields = append(fields, log.ColumnsKey, subset)
	}
	logger.Info("Incomplete records dropped", fields...)

	if total > 0 && float64(dropped) > dropWarnRatio*float64(total) {
		errors.Warn(errors.NewDroppedRowsWarning(dropped, total))
	}
}
