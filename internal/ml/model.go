// Package ml hosts the price prediction model: ONNX inference, the feature
// pipeline feeding it and the scaler trained alongside it.
package ml

import (
	onnxruntime "github.com/yalue/onnxruntime_go"

	"tradesage/pkg/errors"
)

// Model geometry the LSTM was exported with.
const (
	SeqLen      = 60
	NumFeatures = 14
)

// PriceModel wraps an ONNX Runtime session around the exported LSTM. The
// model consumes a [1, SeqLen, NumFeatures] window of scaled features and
// emits a single predicted close.
type PriceModel struct {
	session *onnxruntime.DynamicAdvancedSession
}

// LoadPriceModel loads the exported model from file
func LoadPriceModel(modelPath string) (*PriceModel, error) {
	err := onnxruntime.InitializeEnvironment()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize ONNX runtime")
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"}, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ONNX model")
	}

	return &PriceModel{session: session}, nil
}

// Predict runs inference on one feature window. rows must hold exactly
// SeqLen rows of NumFeatures already-scaled values, oldest first.
func (m *PriceModel) Predict(rows [][]float64) (float64, error) {
	if m.session == nil {
		return 0, errors.New("model session is nil")
	}
	if len(rows) != SeqLen {
		return 0, errors.Wrapf(errors.ErrInsufficientData, "need %d rows, got %d", SeqLen, len(rows))
	}

	input := make([]float32, 0, SeqLen*NumFeatures)
	for _, row := range rows {
		if len(row) != NumFeatures {
			return 0, errors.Wrapf(errors.ErrInvalidInput, "need %d features per row, got %d", NumFeatures, len(row))
		}
		for _, v := range row {
			input = append(input, float32(v))
		}
	}

	inputShape := onnxruntime.NewShape(1, SeqLen, NumFeatures)
	inputTensor, err := onnxruntime.NewTensor(inputShape, input)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	output := make([]float32, 1)
	outputShape := onnxruntime.NewShape(1, 1)
	outputTensor, err := onnxruntime.NewTensor(outputShape, output)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create output tensor")
	}
	defer outputTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{outputTensor},
	)
	if err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}

	return float64(output[0]), nil
}

// Destroy cleans up the ONNX session
func (m *PriceModel) Destroy() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
