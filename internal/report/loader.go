// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package report

import (
	"fmt"
	"strings"

	"poptrack/internal/imaging"
	"poptrack/internal/storage"
)

const (
	// minImageBytes rejects stub files left behind by interrupted uploads.
	minImageBytes = 1000

	// noiseNameLength: entry image fields have historically accumulated
	// junk tokens (flags, fragments of comma-split names). Anything this
	// short cannot be a real "20060102_150405_name.ext" filename.
	noiseNameLength = 10
)

// imageLoader reads entry images from local storage and validates them
// before they are embedded in a workbook.
type imageLoader struct {
	files *storage.Local
}

// loadedImage is a validated, embeddable image.
type loadedImage struct {
	Name   string
	Data   []byte
	Width  int
	Height int
	Format string
}

// filterImageNames splits a comma-joined image field and drops blank and
// noise tokens. The returned names are what the preview accounting counts
// as attempted images.
func filterImageNames(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || len(name) <= noiseNameLength {
			continue
		}
		out = append(out, name)
	}
	return out
}

// load reads and validates one image. Failures are per-image: the caller
// tallies them and keeps going.
func (il *imageLoader) load(name string) (*loadedImage, error) {
	info, err := il.files.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.Size() < minImageBytes {
		return nil, fmt.Errorf("%s: %d bytes, below minimum %d", name, info.Size(), minImageBytes)
	}

	data, err := il.files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	imgInfo, err := imaging.Verify(data)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", name, err)
	}

	return &loadedImage{
		Name:   name,
		Data:   data,
		Width:  imgInfo.Width,
		Height: imgInfo.Height,
		Format: imgInfo.Format,
	}, nil
}
