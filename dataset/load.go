package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"io/fs"
	"os"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
)

// DefaultNAValues are the tokens read as missing, matching pandas.read_csv.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

type readOptions struct {
	delimiter rune
	naValues  map[string]struct{}
	source    string
}

// Option configures Read and Load.
type Option func(*readOptions)

// WithDelimiter sets the field separator. The default is ','.
func WithDelimiter(r rune) Option {
	return func(o *readOptions) { o.delimiter = r }
}

// WithNAValues adds tokens that are read as missing on top of DefaultNAValues.
func WithNAValues(tokens ...string) Option {
	return func(o *readOptions) {
		for _, t := range tokens {
			o.naValues[t] = struct{}{}
		}
	}
}

// WithSourceName sets the name used in errors and logs for Read.
func WithSourceName(name string) Option {
	return func(o *readOptions) { o.source = name }
}

func newReadOptions(opts []Option) *readOptions {
	o := &readOptions{
		delimiter: ',',
		naValues:  make(map[string]struct{}, len(DefaultNAValues)),
		source:    "<reader>",
	}
	for _, t := range DefaultNAValues {
		o.naValues[t] = struct{}{}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads a delimited file with a header row.
func Load(path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		reason := "cannot open file"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "file does not exist"
		}
		return nil, errors.NewParseError(path, 0, reason, err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f), append([]Option{WithSourceName(path)}, opts...)...)
}

// Read parses delimited text with a header row. Every row must have as many
// fields as the header; the first offending row yields a ParseError.
func Read(r io.Reader, opts ...Option) (*Dataset, error) {
	o := newReadOptions(opts)
	logger := log.GetLoggerWithName("dataset")

	reader := csv.NewReader(r)
	reader.Comma = o.delimiter
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParseError(o.source, 0, "empty input, no header row", nil)
	}
	if err != nil {
		return nil, toParseError(o.source, err)
	}
	columns := append([]string(nil), header...)
	if len(columns) == 1 && columns[0] == "" {
		return nil, errors.NewParseError(o.source, 1, "header row is blank", nil)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, errors.NewParseError(o.source, 1, "duplicate column "+c, nil)
		}
		seen[c] = struct{}{}
	}

	var records []Record
	for label := 0; ; label++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toParseError(o.source, err)
		}
		fields := make([]Field, len(row))
		for j, v := range row {
			if _, na := o.naValues[v]; na {
				fields[j] = Field{Missing: true}
				continue
			}
			fields[j] = Field{Raw: v}
		}
		records = append(records, Record{label: label, values: fields})
	}

	logger.Debug("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, o.source,
		log.SamplesKey, len(records),
		log.FeaturesKey, len(columns),
	)
	return newDataset(o.source, columns, records), nil
}

func toParseError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		reason := "malformed row"
		if errors.Is(pe.Err, csv.ErrFieldCount) {
			reason = "field count differs from header"
		}
		return errors.NewParseError(source, pe.Line, reason, pe.Err)
	}
	return errors.NewParseError(source, 0, "read failed", err)
}
