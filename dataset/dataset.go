// Package dataset loads tabular housing data and turns it into the
// matrices consumed by the estimators.
//
// A Dataset is read once and never mutated: cleaning returns a new Dataset
// sharing the surviving Records. Select projects a target column and an
// ordered list of feature columns into a FeatureMatrix and a TargetVector
// backed by gonum.
//
//	ds, err := dataset.Load("melb_data.csv")
//	clean := dataset.DropIncomplete(ds)
//	X, y, err := dataset.Select(clean, "Price",
//	    []string{"Rooms", "Bathroom", "Landsize", "Lattitude", "Longtitude"})
package dataset

// Record is one input row. Values are kept as raw text; a missing field
// has Missing set and an empty Raw.
type Record struct {
	label  int
	values []Field
}

// Field is a single cell of a Record.
type Field struct {
	Raw     string
	Missing bool
}

// Label returns the 0-based position of the record in the original input.
// It survives cleaning, so a filtered dataset may show labels 1, 2, 4, ...
func (r Record) Label() int { return r.label }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.values) }

// Field returns the i-th field.
func (r Record) Field(i int) Field { return r.values[i] }

// HasMissing reports whether any field is missing.
func (r Record) HasMissing() bool {
	for _, f := range r.values {
		if f.Missing {
			return true
		}
	}
	return false
}

// Dataset is an ordered list of Records under a header.
type Dataset struct {
	source  string
	columns []string
	index   map[string]int
	records []Record
}

func newDataset(source string, columns []string, records []Record) *Dataset {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Dataset{source: source, columns: columns, index: index, records: records}
}

// derive returns a dataset with the same header and a new row set.
func (d *Dataset) derive(records []Record) *Dataset {
	return &Dataset{source: d.source, columns: d.columns, index: d.index, records: records}
}

// Source names where the data came from (path, URL or table).
func (d *Dataset) Source() string { return d.source }

// Columns returns the header in file order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Record returns the i-th record.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// ColumnIndex returns the position of a column in the header.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// MissingCounts returns the number of missing fields per column.
func (d *Dataset) MissingCounts() map[string]int {
	counts := make(map[string]int, len(d.columns))
	for _, r := range d.records {
		for j, f := range r.values {
			if f.Missing {
				counts[d.columns[j]]++
			}
		}
	}
	return counts
}
