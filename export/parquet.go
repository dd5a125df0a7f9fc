// Package export writes pipeline artifacts: prediction tables as Parquet,
// predicted-vs-actual plots, and uploads of both to object storage.
package export

import (
	"encoding/json"
	"io"
	"math"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// PredictionRow is one line of the prediction table.
type PredictionRow struct {
	Row       int64   `json:"row"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	AbsError  float64 `json:"abs_error"`
}

const predictionSchema = `{
  "Tag": "name=parquet_go_root, repetitiontype=REQUIRED",
  "Fields": [
    {"Tag": "name=row, type=INT64, repetitiontype=REQUIRED"},
    {"Tag": "name=actual, type=DOUBLE, repetitiontype=REQUIRED"},
    {"Tag": "name=predicted, type=DOUBLE, repetitiontype=REQUIRED"},
    {"Tag": "name=abs_error, type=DOUBLE, repetitiontype=REQUIRED"}
  ]
}`

// PredictionRows pairs labels, actual and predicted values.
func PredictionRows(labels []int, actual, predicted []float64) ([]PredictionRow, error) {
	if len(actual) != len(predicted) {
		return nil, errors.NewDimensionError("export.PredictionRows", len(actual), len(predicted), 0)
	}
	if labels != nil && len(labels) != len(actual) {
		return nil, errors.NewDimensionError("export.PredictionRows", len(actual), len(labels), 0)
	}
	rows := make([]PredictionRow, len(actual))
	for i := range rows {
		label := i
		if labels != nil {
			label = labels[i]
		}
		rows[i] = PredictionRow{
			Row:       int64(label),
			Actual:    actual[i],
			Predicted: predicted[i],
			AbsError:  math.Abs(actual[i] - predicted[i]),
		}
	}
	return rows, nil
}

// WriteParquet writes rows to w as a snappy-compressed Parquet file.
func WriteParquet(w io.Writer, rows []PredictionRow) error {
	pfw := writerfile.NewWriterFile(w)
	pw, err := writer.NewJSONWriter(predictionSchema, pfw, 4)
	if err != nil {
		return errors.Wrap(err, "create parquet writer")
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			return errors.Wrapf(err, "encode row %d", i)
		}
		if err := pw.Write(string(b)); err != nil {
			_ = pw.WriteStop()
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return errors.Wrap(err, "finish parquet file")
	}
	return pfw.Close()
}
