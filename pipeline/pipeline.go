// Package pipeline runs the housing-price workflow end to end: load, clean,
// select, split, fit, predict, evaluate and export.
package pipeline

import (
	"context"
	"database/sql"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/config"
	"github.com/YuminosukeSato/homeprice/core/model"
	"github.com/YuminosukeSato/homeprice/dataset"
	"github.com/YuminosukeSato/homeprice/export"
	"github.com/YuminosukeSato/homeprice/metrics"
	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
	"github.com/YuminosukeSato/homeprice/pkg/objstore"
	"github.com/YuminosukeSato/homeprice/preprocessing"
)

// Metrics are the evaluation scores of a run.
type Metrics struct {
	MAE  float64
	RMSE float64
	// R2 is NaN when the evaluation targets are constant.
	R2 float64
	// InSample is set when no rows were held out and the scores are
	// computed on the training data.
	InSample bool
	Samples  int
}

// Result is everything a run produced.
type Result struct {
	RunID     string
	Source    string
	ModelName string
	Target    string
	Features  []string

	LoadedRows  int
	CleanedRows int
	TrainRows   int
	ValRows     int

	Description     *dataset.Description
	Head            *dataset.FeatureMatrix
	HeadPredictions []float64
	Metrics         Metrics
	Importances     []float64

	Model     Regressor
	Artifacts []string
	Duration  time.Duration
}

type runOptions struct {
	store objstore.Store
	db    *sql.DB
}

// Option configures Run.
type Option func(*runOptions)

// WithObjectStore sets the store used for s3:// sources and uploads.
func WithObjectStore(s objstore.Store) Option {
	return func(o *runOptions) { o.store = s }
}

// WithDB sets the connection used for postgres:// sources.
func WithDB(db *sql.DB) Option {
	return func(o *runOptions) { o.db = db }
}

// Run executes the pipeline described by cfg.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &runOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil && cfg.S3.Endpoint != "" {
		s3, err := objstore.NewS3Store(cfg.S3)
		if err != nil {
			return nil, err
		}
		o.store = s3
	}
	if o.db == nil && cfg.DatabaseURL != "" && needsDatabaseURL(cfg.Data.Source) {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "open database")
		}
		defer db.Close()
		o.db = db
	}

	start := time.Now()
	res := &Result{
		RunID:    uuid.NewString(),
		Target:   cfg.Target,
		Features: append([]string(nil), cfg.Features...),
	}
	logger := log.GetLoggerWithName("pipeline").With(log.EstimatorIDKey, res.RunID)

	// load
	openOpts := []dataset.OpenOption{
		dataset.WithReadOptions(dataset.WithDelimiter(cfg.DelimiterRune()), dataset.WithNAValues(cfg.Data.NAValues...)),
	}
	if o.store != nil {
		openOpts = append(openOpts, dataset.WithObjectStore(o.store))
	}
	if o.db != nil {
		openOpts = append(openOpts, dataset.WithDB(o.db))
	}
	ds, err := dataset.Open(ctx, cfg.Data.Source, openOpts...)
	if err != nil {
		return nil, err
	}
	res.Source = ds.Source()
	res.LoadedRows = ds.Len()

	// clean
	imputing := cfg.Clean.Policy != config.CleanDrop
	switch {
	case imputing:
		ds, err = dataset.DropIncompleteSubset(ds, []string{cfg.Target})
	case len(cfg.Clean.Subset) > 0:
		ds, err = dataset.DropIncompleteSubset(ds, cfg.Clean.Subset)
	default:
		ds = dataset.DropIncomplete(ds)
	}
	if err != nil {
		return nil, err
	}
	res.CleanedRows = ds.Len()

	// select
	var selOpts []dataset.SelectOption
	if imputing {
		selOpts = append(selOpts, dataset.AllowMissing())
	}
	X, y, err := dataset.Select(ds, cfg.Target, cfg.Features, selOpts...)
	if err != nil {
		return nil, err
	}
	res.Description = dataset.Describe(X)

	// split
	trainX, trainY := X, y
	var valX *dataset.FeatureMatrix
	var valY *dataset.TargetVector
	if cfg.Split.TestSize > 0 {
		split, err := dataset.TrainTestSplit(X, y, cfg.Split.TestSize, cfg.Split.Seed)
		if err != nil {
			return nil, err
		}
		trainX, trainY, valX, valY = split.TrainX, split.TrainY, split.ValX, split.ValY
	}
	res.TrainRows = trainY.Len()
	if valY != nil {
		res.ValRows = valY.Len()
	}

	if imputing {
		imp, err := preprocessing.NewSimpleImputer(cfg.Clean.Policy)
		if err != nil {
			return nil, err
		}
		if err := imp.Fit(trainX); err != nil {
			return nil, err
		}
		if trainX, err = impute(imp, trainX); err != nil {
			return nil, err
		}
		if valX != nil {
			if valX, err = impute(imp, valX); err != nil {
				return nil, err
			}
		}
		if X, err = impute(imp, X); err != nil {
			return nil, err
		}
	}

	// fit
	est, name := NewRegressor(cfg.Model)
	res.ModelName = name
	logger = logger.With(log.ModelNameKey, name)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, res.TrainRows,
		log.FeaturesKey, len(cfg.Features),
		log.HyperParamsKey, est.GetParams(),
	)
	if err := fit(ctx, est, trainX, trainY); err != nil {
		logger.Error("Training failed", log.ErrAttrKey, err)
		return nil, err
	}
	res.Model = est
	res.Importances = est.GetFeatureImportances()

	// predict
	if cfg.HeadRows > 0 {
		res.Head = X.Head(cfg.HeadRows)
		pred, err := est.Predict(res.Head)
		if err != nil {
			return nil, err
		}
		res.HeadPredictions = column(pred)
	}

	// evaluate
	evalX, evalY := valX, valY
	if evalX == nil {
		evalX, evalY = trainX, trainY
		res.Metrics.InSample = true
	}
	evalPred, err := est.Predict(evalX)
	if err != nil {
		return nil, err
	}
	if res.Metrics, err = evaluate(evalY, evalPred, res.Metrics.InSample); err != nil {
		return nil, err
	}
	logger.Info("Model evaluated",
		log.OperationKey, log.OperationScore,
		log.SamplesKey, res.Metrics.Samples,
		log.MAEKey, res.Metrics.MAE,
		log.RMSEKey, res.Metrics.RMSE,
		log.R2ScoreKey, res.Metrics.R2,
	)

	if res.Artifacts, err = writeArtifacts(ctx, cfg, o.store, res, evalY, column(evalPred)); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	logger.Info("Pipeline finished", log.DurationMsKey, res.Duration.Milliseconds())
	return res, nil
}

func isPostgres(source string) bool {
	return strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://")
}

// needsDatabaseURL reports whether a postgres source lacks its own host and
// credentials, e.g. postgres:///?table=melb, and so connects through
// cfg.DatabaseURL.
func needsDatabaseURL(source string) bool {
	if !isPostgres(source) {
		return false
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Host == "" && u.User == nil
}

func impute(imp *preprocessing.SimpleImputer, X *dataset.FeatureMatrix) (*dataset.FeatureMatrix, error) {
	filled, err := imp.Transform(X)
	if err != nil {
		return nil, err
	}
	return dataset.NewFeatureMatrix(mat.DenseCopyOf(filled), X.ColumnNames(), X.Labels()), nil
}

func column(m mat.Matrix) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = m.At(i, 0)
	}
	return out
}

func evaluate(y *dataset.TargetVector, pred mat.Matrix, inSample bool) (Metrics, error) {
	m := Metrics{InSample: inSample, Samples: y.Len()}
	var err error
	if m.MAE, err = metrics.MAEMatrix(y, pred); err != nil {
		return m, err
	}
	if m.RMSE, err = metrics.RMSEMatrix(y, pred); err != nil {
		return m, err
	}
	if m.R2, err = metrics.R2ScoreMatrix(y, pred); err != nil {
		m.R2 = math.NaN()
	}
	return m, nil
}

func writeArtifacts(ctx context.Context, cfg *config.Config, store objstore.Store, res *Result, y *dataset.TargetVector, pred []float64) ([]string, error) {
	out := cfg.Output
	var written []string
	logger := log.GetLoggerWithName("export").With(log.EstimatorIDKey, res.RunID)

	if out.Parquet != "" {
		rows, err := export.PredictionRows(y.Labels(), y.Values(), pred)
		if err != nil {
			return nil, err
		}
		if err := writeFile(out.Parquet, func(w io.Writer) error { return export.WriteParquet(w, rows) }); err != nil {
			return nil, err
		}
		written = append(written, out.Parquet)
	}
	if out.Plot != "" {
		title := res.ModelName + " predictions"
		if err := export.PlotPredictions(out.Plot, title, y.Values(), pred); err != nil {
			return nil, err
		}
		written = append(written, out.Plot)
	}
	if out.Model != "" {
		if err := res.Model.Save(out.Model); err != nil {
			return nil, err
		}
		written = append(written, out.Model)
	}
	if out.ModelCard != "" {
		card := &model.ModelCard{
			RunID:           res.RunID,
			ModelType:       res.ModelName,
			Target:          res.Target,
			Features:        res.Features,
			Hyperparameters: res.Model.GetParams(),
			Metrics:         map[string]float64{"mae": res.Metrics.MAE, "rmse": res.Metrics.RMSE},
			TrainSamples:    res.TrainRows,
			CreatedAt:       time.Now().UTC(),
		}
		if !math.IsNaN(res.Metrics.R2) {
			card.Metrics["r2"] = res.Metrics.R2
		}
		if err := card.WriteFile(out.ModelCard); err != nil {
			return nil, err
		}
		written = append(written, out.ModelCard)
	}
	for _, p := range written {
		logger.Info("Artifact written", log.OperationKey, log.OperationExport, log.OutputKey, p)
	}

	if out.Upload != "" && len(written) > 0 {
		up, err := export.NewUploader(store, out.Upload)
		if err != nil {
			return nil, err
		}
		for _, p := range append([]string(nil), written...) {
			url, err := up.PutFile(ctx, res.RunID, filepath.Clean(p))
			if err != nil {
				return nil, err
			}
			written = append(written, url)
		}
	}
	return written, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
