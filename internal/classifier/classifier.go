// Package classifier runs an on-device TensorFlow Lite image classifier
// used as plant-presence evidence when remote identification fails.
package classifier

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/tphakala/go-tflite"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/observability/metrics"
)

// DefaultTopN is used when Classify is called with topN ≤ 0.
const DefaultTopN = 10

// Config describes the model and how images are prepared for it.
type Config struct {
	ModelPath string
	LabelPath string
	Threads   int  // 0 picks from the CPU count
	InputSize int  // square edge; 0 reads it from the model
	Signed    bool // [-1,1] input scaling
}

// Classifier wraps a TFLite interpreter. Interpreter calls are serialized.
type Classifier struct {
	mu          sync.Mutex
	model       *tflite.Model
	interpreter *tflite.Interpreter
	labels      []string
	inputSize   int
	signed      bool
	log         logger.Logger
	recorder    metrics.Recorder
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Classifier) { c.log = log }
}

// WithRecorder records inference counts and durations.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Classifier) { c.recorder = metrics.OrNoOp(r) }
}

// Load reads the labels and model and allocates the interpreter.
func Load(cfg Config, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		signed:   cfg.Signed,
		log:      logger.NewDiscardLogger(),
		recorder: metrics.NoOpRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Module("classifier")
	start := time.Now()

	labels, err := LoadLabels(cfg.LabelPath)
	if err != nil {
		return nil, err
	}
	c.labels = labels

	modelData, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, errors.Newf("failed to read model file: %w", err).
			Category(errors.CategoryModelLoad).
			Context("model_path", cfg.ModelPath).
			Timing("model-load", time.Since(start)).
			Component("classifier").
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.New(fmt.Errorf("cannot load TensorFlow Lite model")).
			Category(errors.CategoryModelInit).
			Context("model_path", cfg.ModelPath).
			Context("model_size_kb", len(modelData)/1024).
			Timing("model-init", time.Since(start)).
			Component("classifier").
			Build()
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threadCount(cfg.Threads))
	options.SetErrorReporter(func(msg string, _ any) {
		c.log.Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, errors.New(fmt.Errorf("cannot create interpreter")).
			Category(errors.CategoryModelInit).
			Context("model_path", cfg.ModelPath).
			Component("classifier").
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, errors.New(fmt.Errorf("tensor allocation failed: %v", status)).
			Category(errors.CategoryModelInit).
			Context("model_path", cfg.ModelPath).
			Component("classifier").
			Build()
	}
	c.model = model
	c.interpreter = interpreter

	c.inputSize = cfg.InputSize
	if input := interpreter.GetInputTensor(0); input != nil && input.NumDims() == 4 {
		// NHWC
		if side := input.Dim(1); side > 0 {
			c.inputSize = side
		}
	}
	if c.inputSize <= 0 {
		c.Close()
		return nil, errors.Newf("cannot determine model input size").
			Category(errors.CategoryModelInit).
			Context("model_path", cfg.ModelPath).
			Component("classifier").
			Build()
	}

	c.log.Info("image classifier loaded",
		logger.String("model_path", cfg.ModelPath),
		logger.Int("labels", len(labels)),
		logger.Int("input_size", c.inputSize),
		logger.Bool("signed_input", c.signed),
		logger.Duration("load_time", time.Since(start)))

	return c, nil
}

// Labels returns the label vocabulary.
func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Classify decodes a JPEG or PNG photo and returns the topN labels, best
// first.
func (c *Classifier) Classify(ctx context.Context, image []byte, topN int) ([]Prediction, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	start := time.Now()
	preds, err := c.classify(ctx, image, topN)
	c.recorder.RecordDuration(metrics.OpClassify, time.Since(start).Seconds())
	if err != nil {
		c.recorder.RecordOperation(metrics.OpClassify, metrics.StatusError)
		c.recorder.RecordError(metrics.OpClassify, string(errors.CategoryOf(err)))
		return nil, err
	}
	c.recorder.RecordOperation(metrics.OpClassify, metrics.StatusSuccess)
	return preds, nil
}

func (c *Classifier) classify(ctx context.Context, data []byte, n int) ([]Prediction, error) {
	img, format, err := decode(data)
	if err != nil {
		return nil, err
	}
	tensor := toTensor(img, c.inputSize, c.signed)

	if err := ctx.Err(); err != nil {
		return nil, errors.Newf("classification cancelled: %w", err).
			Category(errors.CategoryCancellation).
			Component("classifier").
			Build()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.interpreter == nil {
		return nil, errors.Newf("classifier is closed").
			Category(errors.CategoryState).
			Component("classifier").
			Build()
	}

	input := c.interpreter.GetInputTensor(0)
	if input == nil {
		return nil, errors.Newf("cannot get input tensor").
			Category(errors.CategoryModelInit).
			Component("classifier").
			Build()
	}
	copy(input.Float32s(), tensor)

	if status := c.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.New(fmt.Errorf("tensor invoke failed: %v", status)).
			Category(errors.CategoryModelInit).
			Component("classifier").
			Build()
	}

	output := c.interpreter.GetOutputTensor(0)
	size := output.Dim(output.NumDims() - 1)
	raw := make([]float32, size)
	copy(raw, output.Float32s())

	preds := topN(c.labels, normalize(raw), n)
	if len(preds) > 0 {
		c.log.Debug("classification complete",
			logger.String("format", format),
			logger.String("top_label", preds[0].Label),
			logger.Float64("top_confidence", preds[0].Confidence))
	}
	return preds, nil
}

// Close releases the interpreter and model.
func (c *Classifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
}

// threadCount leaves one core free unless the caller chose a count.
func threadCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return max(1, runtime.NumCPU()-1)
}
