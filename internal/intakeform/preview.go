package intakeform

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register decoders for image.Decode
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// PreviewEdge bounds the longest side of a generated thumbnail.
const PreviewEdge = 240

// Preview is the local thumbnail shown next to a selected file. Formats that cannot be decoded locally
// (svg, heic, pdf) get a placeholder preview that only carries the name.
type Preview struct {
	Name        string
	Width       int
	Height      int
	PNG         []byte
	Placeholder bool
}

// NewPreview decodes img and scales it down to fit PreviewEdge.
func NewPreview(img Image) (Preview, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Preview{Name: img.Name, Placeholder: true}, nil
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Preview{Name: img.Name, Placeholder: true}, nil
	}
	if w > PreviewEdge || h > PreviewEdge {
		if w >= h {
			h = max(1, h*PreviewEdge/w)
			w = PreviewEdge
		} else {
			w = max(1, w*PreviewEdge/h)
			h = PreviewEdge
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Preview{}, fmt.Errorf("encode preview for %s: %w", img.Name, err)
	}
	return Preview{Name: img.Name, Width: w, Height: h, PNG: buf.Bytes()}, nil
}
