// Package config handles pipeline configuration.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
	"github.com/YuminosukeSato/homeprice/pkg/objstore"
)

// Model kinds.
const (
	ModelTree   = "tree"
	ModelForest = "forest"
)

// Clean policies.
const (
	CleanDrop   = "drop"
	CleanMean   = "mean"
	CleanMedian = "median"
)

// Config defines the structure for all pipeline configuration.
type Config struct {
	Data     DataConf        `yaml:"data"`
	Clean    CleanConf       `yaml:"clean"`
	Target   string          `yaml:"target"`
	Features []string        `yaml:"features"`
	Model    ModelConf       `yaml:"model"`
	Split    SplitConf       `yaml:"split"`
	Output   OutputConf      `yaml:"output"`
	S3       objstore.Config `yaml:"s3"`
	// DatabaseURL is used for postgres:// sources that carry no host or
	// credentials of their own. Usually loaded from env.
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
	// HeadRows is how many rows the report prints predictions for.
	HeadRows int `yaml:"head_rows"`
}

// DataConf describes the input dataset.
type DataConf struct {
	// Source is a path, s3://bucket/key or postgres://...?table=name.
	Source    string   `yaml:"source"`
	Delimiter string   `yaml:"delimiter"`
	NAValues  []string `yaml:"na_values"`
}

// CleanConf selects how incomplete records are handled.
type CleanConf struct {
	Policy string `yaml:"policy"`
	// Subset restricts the drop policy to these columns. Empty means all.
	Subset []string `yaml:"subset"`
}

// ModelConf holds the estimator hyperparameters.
type ModelConf struct {
	Kind           string `yaml:"kind"`
	NEstimators    int    `yaml:"n_estimators"`
	MaxDepth       int    `yaml:"max_depth"`
	MinSamplesLeaf int    `yaml:"min_samples_leaf"`
	MaxLeafNodes   int    `yaml:"max_leaf_nodes"`
	MaxFeatures    int    `yaml:"max_features"`
	Bootstrap      bool   `yaml:"bootstrap"`
	NJobs          int    `yaml:"n_jobs"`
	RandomState    uint64 `yaml:"random_state"`
}

// SplitConf controls the train/validation split. TestSize 0, the default,
// trains on every row and skips validation; the random forest walkthrough
// holds out 0.25.
type SplitConf struct {
	TestSize float64 `yaml:"test_size"`
	Seed     uint64  `yaml:"seed"`
}

// OutputConf lists the artifacts a run writes. Empty paths are skipped.
type OutputConf struct {
	Parquet   string `yaml:"parquet"`
	Plot      string `yaml:"plot"`
	Model     string `yaml:"model"`
	ModelCard string `yaml:"model_card"`
	// Upload is an s3://bucket/prefix the written artifacts are copied to.
	Upload string `yaml:"upload"`
}

// Default returns the configuration of the Melbourne housing walkthrough.
func Default() *Config {
	return &Config{
		Data:     DataConf{Source: "testdata/melb_data.csv", Delimiter: ","},
		Clean:    CleanConf{Policy: CleanDrop},
		Target:   "Price",
		Features: []string{"Rooms", "Bathroom", "Landsize", "Lattitude", "Longtitude"},
		Model: ModelConf{
			Kind:           ModelTree,
			NEstimators:    100,
			MinSamplesLeaf: 1,
			Bootstrap:      true,
			RandomState:    1,
		},
		Split:    SplitConf{TestSize: 0, Seed: 0},
		LogLevel: "info",
		HeadRows: 5,
	}
}

// LoadConfig loads configuration from the specified YAML file path on top
// of the defaults and applies environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", configPath)
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", configPath)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from HOMEPRICE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("HOMEPRICE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HOMEPRICE_DATA"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("HOMEPRICE_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("HOMEPRICE_S3_ACCESS_KEY"); v != "" {
		c.S3.AccessKeyID = v
	}
	if v := os.Getenv("HOMEPRICE_S3_SECRET_KEY"); v != "" {
		c.S3.SecretAccessKey = v
	}
	if v := os.Getenv("HOMEPRICE_S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewValidationError("HOMEPRICE_S3_USE_SSL", "must be a boolean", v)
		}
		c.S3.UseSSL = b
	}
	if v := os.Getenv("HOMEPRICE_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Data.Source == "":
		return errors.NewValidationError("data.source", "is required", c.Data.Source)
	case len([]rune(c.Data.Delimiter)) > 1:
		return errors.NewValidationError("data.delimiter", "must be a single character", c.Data.Delimiter)
	case c.Target == "":
		return errors.NewValidationError("target", "is required", c.Target)
	case len(c.Features) == 0:
		return errors.NewValidationError("features", "at least one feature is required", c.Features)
	case c.Split.TestSize < 0 || c.Split.TestSize >= 1:
		return errors.NewValidationError("split.test_size", "must be in [0, 1)", c.Split.TestSize)
	case c.HeadRows < 0:
		return errors.NewValidationError("head_rows", "must be >= 0", c.HeadRows)
	}
	for _, f := range c.Features {
		if f == c.Target {
			return errors.NewValidationError("features", "must not contain the target", f)
		}
	}
	switch c.Clean.Policy {
	case CleanDrop, CleanMean, CleanMedian:
	default:
		return errors.NewValidationError("clean.policy", "must be drop, mean or median", c.Clean.Policy)
	}
	switch c.Model.Kind {
	case ModelTree:
	case ModelForest:
		if c.Model.NEstimators < 1 {
			return errors.NewValidationError("model.n_estimators", "must be >= 1", c.Model.NEstimators)
		}
	default:
		return errors.NewValidationError("model.kind", "must be tree or forest", c.Model.Kind)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	return nil
}

// DelimiterRune returns the configured field separator, defaulting to ','.
func (c *Config) DelimiterRune() rune {
	if c.Data.Delimiter == "" {
		return ','
	}
	return []rune(c.Data.Delimiter)[0]
}
