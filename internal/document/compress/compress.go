// Package compress shrinks identity images to fit a byte budget.
package compress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	dErrors "kyc/pkg/domain-errors"
)

// Qualities are tried in this order at every scale.
var Qualities = []float64{0.85, 0.75, 0.65, 0.55, 0.45, 0.35, 0.25, 0.15, 0.10}

// Reduce returns data unchanged when it already fits maxSize. Otherwise the
// image is flattened onto white and re-encoded as JPEG at decreasing scales
// (1.0 down to 0.1) and qualities until a candidate fits.
func Reduce(data []byte, maxSize int) ([]byte, error) {
	if len(data) <= maxSize {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDecodeFailed, "decode image")
	}
	bounds := src.Bounds()

	var smallest []byte
	var buf bytes.Buffer
	for step := 10; step >= 1; step-- {
		scale := float64(step) / 10
		canvas := flatten(src, bounds, scale)
		for _, q := range Qualities {
			buf.Reset()
			if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: int(q*100 + 0.5)}); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode jpeg")
			}
			if buf.Len() <= maxSize {
				return bytes.Clone(buf.Bytes()), nil
			}
			if smallest == nil || buf.Len() < len(smallest) {
				smallest = bytes.Clone(buf.Bytes())
			}
		}
	}

	if smallest != nil && len(smallest) <= maxSize {
		return smallest, nil
	}
	return nil, dErrors.New(dErrors.CodeBudgetUnreachable, "image cannot be reduced to the size budget")
}

// flatten draws src scaled by scale onto an opaque white canvas.
func flatten(src image.Image, bounds image.Rectangle, scale float64) *image.RGBA {
	w := max(1, int(float64(bounds.Dx())*scale))
	h := max(1, int(float64(bounds.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// Pool bounds how many reductions run at once so image work cannot starve
// I/O goroutines.
type Pool struct {
	sem     *semaphore.Weighted
	maxSize int
}

// NewPool allows workers concurrent reductions against a maxSize budget.
func NewPool(workers, maxSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers)), maxSize: maxSize}
}

// MaxSize is the byte budget used by Reduce.
func (p *Pool) MaxSize() int {
	return p.maxSize
}

// Reduce waits for a free slot, then runs Reduce with the pool budget.
func (p *Pool) Reduce(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) <= p.maxSize {
		return data, nil
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "wait for compression slot")
	}
	defer p.sem.Release(1)
	return Reduce(data, p.maxSize)
}
