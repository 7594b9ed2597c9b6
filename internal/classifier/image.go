package classifier

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"golang.org/x/image/draw"

	"github.com/danbi-garden/danbi/internal/errors"
)

// ErrEmptyImage is returned for a zero-length image.
var ErrEmptyImage = errors.NewStd("classifier: image is empty")

// decode reads a JPEG or PNG photo.
func decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errors.New(ErrEmptyImage).
			Category(errors.CategoryValidation).
			Component("classifier").
			Build()
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Newf("failed to decode image: %w", err).
			Category(errors.CategoryImageDecode).
			Context("image_bytes", len(data)).
			Component("classifier").
			Build()
	}
	return img, format, nil
}

// toTensor scales img to size×size and lays it out as NHWC float32 with
// batch 1. Signed scaling maps pixels to [-1,1], otherwise to [0,1].
func toTensor(img image.Image, size int, signed bool) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]float32, size*size*3)
	for y := range size {
		for x := range size {
			c := dst.RGBAAt(x, y)
			base := (y*size + x) * 3
			out[base+0] = scale(c.R, signed)
			out[base+1] = scale(c.G, signed)
			out[base+2] = scale(c.B, signed)
		}
	}
	return out
}

func scale(v uint8, signed bool) float32 {
	if signed {
		return float32(v)/127.5 - 1
	}
	return float32(v) / 255
}
