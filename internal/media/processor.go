// Package media normalizes uploaded profile pictures: any supported input is
// decoded, scaled to fit a bounding box and re-encoded as JPEG.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1024
	// JPEGQuality matches the compression the mobile client used for cached avatars.
	JPEGQuality     = 80
	ContentTypeJPEG = "image/jpeg"
)

var ErrEmptyImage = errors.New("media: empty image data")

type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type Result struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

type Processor interface {
	Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error)
}

// JPEGProcessor is a pure Go Processor.
type JPEGProcessor struct {
	maxDimension int
	quality      int
}

func NewJPEGProcessor(maxDimension int) *JPEGProcessor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &JPEGProcessor{maxDimension: maxDimension, quality: JPEGQuality}
}

func (p *JPEGProcessor) Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error) {
	if upload.Reader == nil {
		return nil, ErrEmptyImage
	}
	data, err := io.ReadAll(upload.Reader)
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode: %w", err)
	}
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("media: invalid dimensions %dx%d", width, height)
	}

	targetMax := maxDimension
	if targetMax <= 0 {
		targetMax = p.maxDimension
	}

	dstW, dstH := width, height
	resized := false
	if width > targetMax || height > targetMax {
		dstW, dstH = scaleToFit(width, height, targetMax)
		resized = true
	}

	// JPEG has no alpha; flatten onto white first.
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("media: encode: %w", err)
	}
	return &Result{
		Bytes:       out.Bytes(),
		ContentType: ContentTypeJPEG,
		Width:       dstW,
		Height:      dstH,
		Resized:     resized,
	}, nil
}

func scaleToFit(width, height, maxDim int) (int, int) {
	if width >= height {
		newH := int(math.Round(float64(height) * float64(maxDim) / float64(width)))
		return maxDim, ensureMin(newH)
	}
	newW := int(math.Round(float64(width) * float64(maxDim) / float64(height)))
	return ensureMin(newW), maxDim
}

func ensureMin(value int) int {
	if value < 1 {
		return 1
	}
	return value
}
