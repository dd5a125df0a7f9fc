// Command homeprice trains a decision tree or random forest on a housing
// dataset and reports its predictions and mean absolute error.
//
//	homeprice -data testdata/melb_data.csv
//	homeprice -data testdata/melb_data.csv -model forest -test-size 0.25 -out-parquet preds.parquet
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/YuminosukeSato/homeprice/config"
	"github.com/YuminosukeSato/homeprice/pipeline"
	"github.com/YuminosukeSato/homeprice/pkg/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.GetLoggerWithName("main").Error("homeprice failed", log.ErrAttrKey, err)
		fmt.Fprintf(os.Stderr, "homeprice: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("homeprice", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	data := fs.String("data", "", "dataset path, s3://bucket/key or postgres://...?table=name")
	modelKind := fs.String("model", "", "model kind: tree or forest")
	target := fs.String("target", "", "target column")
	features := fs.String("features", "", "comma-separated feature columns")
	seed := fs.Uint64("seed", 0, "random_state of the estimator")
	splitSeed := fs.Uint64("split-seed", 0, "seed of the train/validation shuffle")
	maxDepth := fs.Int("max-depth", 0, "maximum tree depth (0 = unlimited)")
	maxLeafNodes := fs.Int("max-leaf-nodes", 0, "maximum leaves per tree (0 = unlimited)")
	nEstimators := fs.Int("n-estimators", 0, "number of trees in the forest")
	nJobs := fs.Int("n-jobs", 0, "trees fitted concurrently (0 = all CPUs)")
	testSize := fs.Float64("test-size", 0, "fraction of rows held out for validation (0 = fit and score on every row)")
	clean := fs.String("clean", "", "incomplete rows: drop, mean or median")
	outParquet := fs.String("out-parquet", "", "write evaluation predictions to this Parquet file")
	plotPath := fs.String("plot", "", "write a predicted-vs-actual plot (.png, .svg)")
	saveModel := fs.String("save-model", "", "save the fitted model with gob")
	modelCard := fs.String("model-card", "", "write a JSON model card")
	upload := fs.String("upload", "", "copy written artifacts to s3://bucket/prefix")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	// flags given on the command line win over the file and env
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data.Source = *data
		case "model":
			cfg.Model.Kind = *modelKind
		case "target":
			cfg.Target = *target
		case "features":
			cfg.Features = splitList(*features)
		case "seed":
			cfg.Model.RandomState = *seed
		case "split-seed":
			cfg.Split.Seed = *splitSeed
		case "max-depth":
			cfg.Model.MaxDepth = *maxDepth
		case "max-leaf-nodes":
			cfg.Model.MaxLeafNodes = *maxLeafNodes
		case "n-estimators":
			cfg.Model.NEstimators = *nEstimators
		case "n-jobs":
			cfg.Model.NJobs = *nJobs
		case "test-size":
			cfg.Split.TestSize = *testSize
		case "clean":
			cfg.Clean.Policy = *clean
		case "out-parquet":
			cfg.Output.Parquet = *outParquet
		case "plot":
			cfg.Output.Plot = *plotPath
		case "save-model":
			cfg.Output.Model = *saveModel
		case "model-card":
			cfg.Output.ModelCard = *modelCard
		case "upload":
			cfg.Output.Upload = *upload
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetupLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	return pipeline.Report(os.Stdout, res)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
