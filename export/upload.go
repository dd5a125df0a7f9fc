package export

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
	"github.com/YuminosukeSato/homeprice/pkg/objstore"
)

// Uploader copies local artifacts to object storage under
// bucket/prefix/runID/.
type Uploader struct {
	store  objstore.Store
	bucket string
	prefix string
}

// NewUploader parses dest (s3://bucket/prefix) and returns an uploader
// writing through store.
func NewUploader(store objstore.Store, dest string) (*Uploader, error) {
	if store == nil {
		return nil, errors.NewValidationError("output.upload", "no object store configured", dest)
	}
	bucket, prefix, err := objstore.ParseURL(dest)
	if err != nil {
		return nil, err
	}
	return &Uploader{store: store, bucket: bucket, prefix: prefix}, nil
}

// Put stores data under key relative to the uploader prefix and returns the
// s3:// URL of the object.
func (u *Uploader) Put(ctx context.Context, key string, data []byte) (string, error) {
	full := path.Join(u.prefix, key)
	if err := u.store.PutObject(ctx, u.bucket, full, data); err != nil {
		return "", errors.Wrapf(err, "upload s3://%s/%s", u.bucket, full)
	}
	url := "s3://" + u.bucket + "/" + full
	log.GetLoggerWithName("export").Info("Artifact uploaded",
		log.OperationKey, log.OperationExport,
		log.OutputKey, url,
		"bytes", len(data),
	)
	return url, nil
}

// PutFile uploads a local file as runID/<base name>.
func (u *Uploader) PutFile(ctx context.Context, runID, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", errors.Wrapf(err, "read artifact %s", file)
	}
	return u.Put(ctx, path.Join(runID, filepath.Base(file)), data)
}
