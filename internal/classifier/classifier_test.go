package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbi-garden/danbi/internal/errors"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Parallel()

	img, format, err := decode(encodePNG(t, solid(8, 4, color.White)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 8, img.Bounds().Dx())

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(16, 16, color.Black), nil))
	_, format, err = decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, _, err = decode(nil)
	require.ErrorIs(t, err, ErrEmptyImage)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, _, err = decode([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryImageDecode))
}

func TestToTensor(t *testing.T) {
	t.Parallel()

	red := solid(40, 20, color.RGBA{R: 255, A: 255})

	signed := toTensor(red, 4, true)
	require.Len(t, signed, 4*4*3)
	assert.InDelta(t, 1.0, signed[0], 0.01)
	assert.InDelta(t, -1.0, signed[1], 0.01)
	assert.InDelta(t, -1.0, signed[2], 0.01)

	unsigned := toTensor(red, 4, false)
	last := len(unsigned) - 3
	assert.InDelta(t, 1.0, unsigned[last], 0.01)
	assert.InDelta(t, 0.0, unsigned[last+1], 0.01)
	assert.InDelta(t, 0.0, unsigned[last+2], 0.01)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	probs := normalize([]float32{0.7, 0.2, 0.1})
	assert.InDelta(t, 0.7, probs[0], 1e-6, "probabilities pass through")

	logits := normalize([]float32{2, 1, 0})
	sum := 0.0
	for _, p := range logits {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, logits[0], logits[1])
	assert.Greater(t, logits[1], logits[2])

	large := normalize([]float32{1000, 1000})
	assert.InDelta(t, 0.5, large[0], 1e-9, "softmax is numerically stable")

	assert.Empty(t, normalize(nil))
}

func TestTopN(t *testing.T) {
	t.Parallel()

	labels := []string{"background", "pot", "daisy", "tabby cat"}
	probs := []float64{0.05, 0.30, 0.55, 0.10, 0.99}

	got := topN(labels, probs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "daisy", got[0].Label)
	assert.Equal(t, "pot", got[1].Label)

	all := topN(labels, probs, 0)
	assert.Len(t, all, 4, "outputs beyond the label list are dropped")
	assert.Equal(t, "background", all[3].Label)
}

func TestLoadLabels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("background\n\n  tench \ngoldfish\n"), 0o600))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"background", "tench", "goldfish"}, labels)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n \n"), 0o600))
	_, err = LoadLabels(empty)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLabelLoad))

	_, err = LoadLabels(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLabelLoad))
}

func TestReadLabels_LongFile(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for range 1001 {
		sb.WriteString("label\n")
	}
	labels, err := readLabels(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Len(t, labels, 1001)
}

func TestLoad_MissingModel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	labelPath := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labelPath, []byte("daisy\n"), 0o600))

	_, err := Load(Config{
		ModelPath: filepath.Join(dir, "missing.tflite"),
		LabelPath: labelPath,
		InputSize: 224,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
}

func TestThreadCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, threadCount(3))
	assert.GreaterOrEqual(t, threadCount(0), 1)
}
