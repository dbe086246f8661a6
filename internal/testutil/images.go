package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"io"
)

// JPEGBytes and GIFBytes are small valid images encoded at package init.
var (
	JPEGBytes = encodeSample(func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) })
	GIFBytes  = encodeSample(func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) })
)

func encodeSample(encode func(io.Writer, image.Image) error) []byte {
	m := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			m.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, m); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
