// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded images before they are stored:
// EXIF orientation is applied, wide images are downsized, and metadata is
// dropped by re-encoding.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/nutricms/internal/model"
)

// ErrUnsupportedFormat is returned for anything that is not JPEG, PNG, GIF
// or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 85

// Result is a processed image ready to be written.
type Result struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
	// Ext is the file extension matching Data, with the leading dot.
	Ext     string
	Resized bool
}

// Processor re-encodes images with a width limit.
type Processor struct {
	maxWidth int
	quality  int
}

// NewProcessor creates a processor. maxWidth <= 0 disables downsizing.
func NewProcessor(maxWidth, quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{maxWidth: maxWidth, quality: quality}
}

// Process decodes data, applies the EXIF orientation, downsizes it to the
// configured width and encodes it again.
func (p *Processor) Process(data []byte) (*Result, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if format == "jpeg" {
		img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	}

	resized := false
	if p.maxWidth > 0 && img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
		resized = true
	}

	out, outFormat, err := encodeImage(img, format, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b := img.Bounds()
	return &Result{
		Data:     out,
		Width:    b.Dx(),
		Height:   b.Dy(),
		MimeType: formatToMimeType(outFormat),
		Ext:      formatToExt(outFormat),
		Resized:  resized,
	}, nil
}

// ProcessReader reads at most limit bytes from r and processes them. It
// fails when r holds more than limit bytes.
func (p *Processor) ProcessReader(r io.Reader, limit int64) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return p.Process(data)
}

// ErrTooLarge is returned by ProcessReader when the input exceeds its limit.
var ErrTooLarge = errors.New("image too large")

// DetectMimeType sniffs the MIME type of data, without parameters.
func DetectMimeType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = ct[:i]
	}
	return ct
}

// readExifOrientation returns the EXIF orientation tag, or 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// applyOrientation undoes the camera rotation recorded in EXIF:
//
//	2 flip H, 3 rotate 180, 4 flip V, 5 transpose,
//	6 rotate 90 CW, 7 transverse, 8 rotate 90 CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage writes img in format. There is no pure Go WebP encoder, so
// WebP input comes out as JPEG; the returned format says which one.
func encodeImage(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		format = "jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), format, nil
}

// detectFormat sniffs the image format. TIFF is rejected outright
// (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	switch DetectMimeType(data) {
	case model.MimeTypeJPEG:
		return "jpeg"
	case model.MimeTypePNG:
		return "png"
	case model.MimeTypeGIF:
		return "gif"
	case model.MimeTypeWebP:
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return model.MimeTypePNG
	case "gif":
		return model.MimeTypeGIF
	case "webp":
		return model.MimeTypeWebP
	default:
		return model.MimeTypeJPEG
	}
}

func formatToExt(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
