// Package homeprice predicts house prices from tabular data with decision
// trees and random forests implemented in Go on top of gonum.
//
// The module follows the "first machine learning model" workflow: load a
// delimited dataset, drop (or impute) incomplete records, select a target
// and feature columns, fit a regressor, predict and measure the mean
// absolute error.
//
// # Quick Start
//
//	data, err := dataset.Load("testdata/melb_data.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data = dataset.DropIncomplete(data)
//
//	features := []string{"Rooms", "Bathroom", "Landsize", "Lattitude", "Longtitude"}
//	X, y, err := dataset.Select(data, "Price", features)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	model := tree.NewDecisionTreeRegressor(tree.WithRandomState(1))
//	if err := model.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	predictions, err := model.Predict(X.Head(5))
//
// # Packages
//
//   - dataset: CSV / S3 / Postgres loading, cleaning, column selection,
//     describe and train/test split
//   - sklearn/tree: DecisionTreeRegressor (squared error CART)
//   - sklearn/ensemble: RandomForestRegressor
//   - metrics: MAE, MSE, RMSE, R²
//   - preprocessing: SimpleImputer
//   - pipeline: end-to-end run and report
//   - export: Parquet predictions, plots, object storage uploads
//   - config: YAML configuration with environment overrides
//   - core/model: estimator interfaces, fitted state and gob persistence
//   - core/parallel: worker fan-out helpers
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// # scikit-learn Compatibility
//
// Hyperparameters and defaults mirror scikit-learn:
//
//	forest := ensemble.NewRandomForestRegressor(
//	    ensemble.WithNEstimators(100),
//	    ensemble.WithMaxDepth(0),  // grow until leaves are pure
//	    ensemble.WithNJobs(-1),    // use all CPU cores
//	    ensemble.WithRandomState(1),
//	)
//
// The command line tool lives in cmd/homeprice.
package homeprice
