// Standard attribute keys for pipeline logging. Keys follow a hierarchical
// naming convention ("model.name", "data.samples") so that records from one
// run can be filtered and aggregated.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "DecisionTreeRegressor", "RandomForestRegressor"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies one pipeline run / estimator instance (UUID).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "load", "clean", "select"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the pipeline.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// SourceKey names where a dataset was read from (path, s3 URL, table).
	SourceKey = "data.source"

	// DroppedRowsKey records how many rows the cleaner removed.
	DroppedRowsKey = "data.dropped_rows"

	// ColumnsKey lists the selected feature columns.
	ColumnsKey = "data.columns"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// MAEKey records mean absolute error.
	MAEKey = "metrics.mae"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// R2ScoreKey records the R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"
)

// Tree model shape
const (
	// TreesKey records the number of trees in an ensemble.
	TreesKey = "model.n_estimators"

	// DepthKey records the depth of a fitted tree.
	DepthKey = "model.depth"

	// LeavesKey records the number of leaves of a fitted tree.
	LeavesKey = "model.n_leaves"

	// TreeIndexKey identifies one tree inside an ensemble.
	TreeIndexKey = "model.tree_index"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// OutputKey names an artifact written by the run (parquet, plot, model file).
	OutputKey = "output.path"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkerIDKey identifies a worker goroutine in parallel training.
	WorkerIDKey = "infra.worker_id"
)

// Standard attribute values.
const (
	OperationLoad    = "load"
	OperationClean   = "clean"
	OperationSelect  = "select"
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationExport  = "export"

	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorSchema            = "SCHEMA"
	ErrorParse             = "PARSE"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)
