package ml

import (
	"encoding/json"
	"os"

	"tradesage/pkg/errors"
)

// Scaler applies the min-max scaling parameters exported with the model.
// Transform computes v*Scale[i] + Min[i] per column, the same affine form
// the training pipeline used.
type Scaler struct {
	Scale []float64 `json:"scale"`
	Min   []float64 `json:"min"`
}

// LoadScaler reads scaler parameters from a JSON file
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scaler file")
	}

	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse scaler file")
	}
	if len(s.Scale) != NumFeatures || len(s.Min) != NumFeatures {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"scaler has %d/%d columns, model expects %d", len(s.Scale), len(s.Min), NumFeatures)
	}
	return &s, nil
}

// Transform scales feature rows in place and returns them.
func (s *Scaler) Transform(rows [][]float64) ([][]float64, error) {
	for _, row := range rows {
		if len(row) != NumFeatures {
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"row has %d features, expected %d", len(row), NumFeatures)
		}
		for i := range row {
			row[i] = row[i]*s.Scale[i] + s.Min[i]
		}
	}
	return rows, nil
}

// InverseTransformClose maps a scaled close prediction back to price space
// using the close column's parameters.
func (s *Scaler) InverseTransformClose(v float64) float64 {
	const closeCol = 3
	if s.Scale[closeCol] == 0 {
		return v
	}
	return (v - s.Min[closeCol]) / s.Scale[closeCol]
}
