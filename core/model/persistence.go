package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// SaveModel は学習済みモデルを gob 形式でファイルに保存する
//
// 使用例:
//
//	reg := tree.NewDecisionTreeRegressor(tree.WithRandomState(1))
//	// ... reg.Fit(X, y) ...
//	err := model.SaveModel(reg, "melbourne.gob")
func SaveModel(m interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create model file %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close model file %s", filename)
		}
	}()
	return SaveModelToWriter(m, file)
}

// LoadModel はファイルからモデルを読み込む。m はポインタでなければならない。
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "open model file %s", filename)
	}
	defer file.Close()
	return LoadModelFromReader(m, file)
}

// SaveModelToWriter はモデルを io.Writer に保存する
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "encode model")
	}
	return nil
}

// LoadModelFromReader は io.Reader からモデルを読み込む
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "decode model")
	}
	return nil
}
