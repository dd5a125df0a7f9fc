package model

import (
	"encoding/json"
	"os"
	"time"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// ModelCard は保存したモデルに添える JSON のメタデータ
type ModelCard struct {
	// RunID はパイプライン実行ごとの UUID
	RunID string `json:"run_id"`

	// ModelType は推定器の種類（DecisionTreeRegressor 等）
	ModelType string `json:"model_type"`

	// Target は目的変数の列名
	Target string `json:"target"`

	// Features は学習に使った特徴量の列名（順序付き）
	Features []string `json:"features"`

	// Hyperparameters は GetParams の結果
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metrics は検証データでの評価値（mae, rmse, r2）
	Metrics map[string]float64 `json:"metrics,omitempty"`

	TrainSamples int       `json:"train_samples"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToJSON はModelCardをJSON形式にシリアライズ
func (c *ModelCard) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON はJSON形式からModelCardをデシリアライズ
func (c *ModelCard) FromJSON(data []byte) error {
	return json.Unmarshal(data, c)
}

// Validate はModelCardの妥当性を検証
func (c *ModelCard) Validate() error {
	if c.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", c.ModelType)
	}
	if c.Target == "" {
		return errors.NewValidationError("target", "is required", c.Target)
	}
	if len(c.Features) == 0 {
		return errors.NewValidationError("features", "at least one feature is required", c.Features)
	}
	return nil
}

// WriteFile はModelCardを検証してから path に書き出す
func (c *ModelCard) WriteFile(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := c.ToJSON()
	if err != nil {
		return errors.Wrap(err, "marshal model card")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write model card %s", path)
	}
	return nil
}
