package classifier

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/danbi-garden/danbi/internal/errors"
)

// Prediction is one label with its confidence in [0,1].
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// LoadLabels reads a label file with one label per line. Blank lines are
// skipped.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Newf("failed to open label file: %w", err).
			Category(errors.CategoryLabelLoad).
			Context("label_path", path).
			Component("classifier").
			Build()
	}
	defer f.Close()

	labels, err := readLabels(f)
	if err != nil {
		return nil, errors.Newf("failed to read label file: %w", err).
			Category(errors.CategoryLabelLoad).
			Context("label_path", path).
			Component("classifier").
			Build()
	}
	if len(labels) == 0 {
		return nil, errors.Newf("label file is empty").
			Category(errors.CategoryLabelLoad).
			Context("label_path", path).
			Component("classifier").
			Build()
	}
	return labels, nil
}

func readLabels(r io.Reader) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	return labels, scanner.Err()
}

// normalize returns probabilities. Outputs that already sum to about one
// and lie in [0,1] pass through; anything else is treated as logits.
func normalize(outputs []float32) []float64 {
	probs := make([]float64, len(outputs))
	sum := 0.0
	inRange := true
	for i, v := range outputs {
		probs[i] = float64(v)
		sum += float64(v)
		if v < 0 || v > 1 {
			inRange = false
		}
	}
	if inRange && math.Abs(sum-1) < 0.01 {
		return probs
	}
	return softmax(probs)
}

func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return logits
	}
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		maxLogit = max(maxLogit, v)
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// topN pairs labels with probabilities and returns the n highest, best
// first. Extra outputs without a label are ignored.
func topN(labels []string, probs []float64, n int) []Prediction {
	count := min(len(labels), len(probs))
	results := make([]Prediction, 0, count)
	for i := range count {
		results = append(results, Prediction{Label: labels[i], Confidence: probs[i]})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results
}
