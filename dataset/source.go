package dataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	_ "github.com/lib/pq"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
	"github.com/YuminosukeSato/homeprice/pkg/objstore"
)

type openOptions struct {
	store    objstore.Store
	db       *sql.DB
	readOpts []Option
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithObjectStore supplies the store used for s3:// sources.
func WithObjectStore(s objstore.Store) OpenOption {
	return func(o *openOptions) { o.store = s }
}

// WithDB reads postgres:// sources through an existing connection pool
// instead of opening one from the URL.
func WithDB(db *sql.DB) OpenOption {
	return func(o *openOptions) { o.db = db }
}

// WithReadOptions forwards parsing options to the CSV reader.
func WithReadOptions(opts ...Option) OpenOption {
	return func(o *openOptions) { o.readOpts = append(o.readOpts, opts...) }
}

// Open loads a dataset from a local path, an s3://bucket/key object or a
// postgres://...?table=name URL.
func Open(ctx context.Context, source string, opts ...OpenOption) (*Dataset, error) {
	o := &openOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch {
	case strings.HasPrefix(source, "s3://"):
		return openS3(ctx, source, o)
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		return openPostgres(ctx, source, o)
	case strings.HasPrefix(source, "file://"):
		return Load(strings.TrimPrefix(source, "file://"), o.readOpts...)
	default:
		return Load(source, o.readOpts...)
	}
}

func openS3(ctx context.Context, source string, o *openOptions) (*Dataset, error) {
	bucket, key, err := objstore.ParseURL(source)
	if err != nil {
		return nil, errors.NewParseError(source, 0, "invalid object URL", err)
	}
	if o.store == nil {
		return nil, errors.NewValidationError("s3", "no object store configured for "+source, nil)
	}

	data, err := o.store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, errors.NewParseError(source, 0, "cannot fetch object", err)
	}
	return Read(bytes.NewReader(data), append([]Option{WithSourceName(source)}, o.readOpts...)...)
}

func tableQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY 1", table)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// splitTableURL removes the table parameter from a postgres URL, leaving a
// DSN lib/pq accepts.
func splitTableURL(source string) (dsn, table string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", errors.NewParseError(redact(source), 0, "invalid database URL", err)
	}
	q := u.Query()
	table = q.Get("table")
	if table == "" {
		return "", "", errors.NewParseError(redact(source), 0, "database URL needs a table parameter", nil)
	}
	if !identPattern.MatchString(table) {
		return "", "", errors.NewParseError(redact(source), 0, "invalid table name "+table, nil)
	}
	q.Del("table")
	u.RawQuery = q.Encode()
	return u.String(), table, nil
}

func redact(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return "postgres://<invalid>"
	}
	return u.Redacted()
}

func openPostgres(ctx context.Context, source string, o *openOptions) (*Dataset, error) {
	dsn, table, err := splitTableURL(source)
	if err != nil {
		return nil, err
	}
	name := redact(source)

	db := o.db
	if db == nil {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, errors.NewParseError(name, 0, "cannot open database", err)
		}
		defer db.Close()
	}
	return readTable(ctx, db, name, table, newReadOptions(o.readOpts))
}

// readTable reads every row of table ordered by its first column, so row
// labels and seeded splits are stable across runs. SQL NULL and the NA
// tokens are both treated as missing.
func readTable(ctx context.Context, db *sql.DB, source, table string, o *readOptions) (*Dataset, error) {
	rows, err := db.QueryContext(ctx, tableQuery(table))
	if err != nil {
		return nil, errors.NewParseError(source, 0, "query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewParseError(source, 0, "cannot read columns", err)
	}

	var records []Record
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for label := 0; rows.Next(); label++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.NewParseError(source, label+1, "cannot scan row", err)
		}
		fields := make([]Field, len(columns))
		for j, v := range values {
			if _, na := o.naValues[v.String]; !v.Valid || na {
				fields[j] = Field{Missing: true}
				continue
			}
			fields[j] = Field{Raw: v.String}
		}
		records = append(records, Record{label: label, values: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewParseError(source, 0, "row iteration failed", err)
	}

	log.GetLoggerWithName("dataset").Debug("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, source,
		log.SamplesKey, len(records),
		log.FeaturesKey, len(columns),
	)
	return newDataset(source, columns, records), nil
}
