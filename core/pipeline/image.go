package pipeline

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// =============================================================================
// Image Metadata and Thumbnails
// =============================================================================

// ImageMeta holds the pixel dimensions and format of a screenshot.
type ImageMeta struct {
	Width  int
	Height int
	Format string
}

// ReadImageMeta decodes just the image header. Unsupported formats
// yield zero dimensions with the extension as format; the pipeline
// indexes such files anyway.
func ReadImageMeta(path string) ImageMeta {
	f, err := os.Open(path)
	if err != nil {
		return ImageMeta{}
	}
	defer f.Close()

	config, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageMeta{Format: extFormat(path)}
	}

	return ImageMeta{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
	}
}

func extFormat(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return strings.ToLower(path[i+1:])
	}
	return ""
}

// Thumbnail renders a small PNG preview bounded by maxSize on the
// longer edge, preserving aspect ratio. Returns nil when the image
// cannot be decoded; a missing thumbnail is not an error.
func Thumbnail(path string, maxSize int) []byte {
	if maxSize <= 0 {
		maxSize = 150
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	tw, th := w, h
	if w > maxSize || h > maxSize {
		if w >= h {
			tw = maxSize
			th = h * maxSize / w
		} else {
			th = maxSize
			tw = w * maxSize / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	for y := 0; y < th; y++ {
		sy := bounds.Min.Y + y*h/th
		for x := 0; x < tw; x++ {
			sx := bounds.Min.X + x*w/tw
			dst.Set(x, y, src.At(sx, sy))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil
	}
	return buf.Bytes()
}
