// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging provides image validation and scaling for uploaded
// photos. Decoding is limited to the registered formats (JPEG, PNG, GIF,
// WebP) and guarded against decompression bombs.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxPixels caps decoded image dimensions to prevent decompression bombs.
const maxPixels = 100_000_000

// jpegQuality is used for all re-encoded output.
const jpegQuality = 80

// ErrUnsupportedFormat is returned for data that none of the registered
// decoders recognize.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Info describes a verified image.
type Info struct {
	Format string
	Width  int
	Height int
}

// Verify checks that data is a decodable image in a supported format and
// within the pixel budget, without decoding the full pixel data.
func Verify(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: empty dimensions", ErrUnsupportedFormat)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return Info{}, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// FitBox returns the dimensions of an image scaled down to fit within
// maxW x maxH while preserving aspect ratio. Images already inside the box
// keep their original size; nothing is ever scaled up.
func FitBox(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratioW := float64(maxW) / float64(w)
	ratioH := float64(maxH) / float64(h)
	ratio := ratioW
	if ratioH < ratio {
		ratio = ratioH
	}
	newW := int(float64(w) * ratio)
	newH := int(float64(h) * ratio)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}

// Thumbnail decodes data, scales it down to fit within maxW x maxH
// preserving aspect ratio, and re-encodes as JPEG. Images already within
// the box are re-encoded without scaling.
func Thumbnail(data []byte, maxW, maxH int) ([]byte, error) {
	if _, err := Verify(data); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := src.Bounds()
	newW, newH := FitBox(bounds.Dx(), bounds.Dy(), maxW, maxH)

	out := src
	if newW != bounds.Dx() || newH != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
