// Package imaging turns uploaded screenshots into bounded JPEG data URIs.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"time"

	// Registered decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"trading-journal/internal/config"
	"trading-journal/internal/metrics"
)

const dataURIPrefix = "data:image/jpeg;base64,"

// DefaultMaxPixels bounds the decoded size of an upload (about 160 MB as RGBA).
const DefaultMaxPixels = 40_000_000

var (
	// ErrTooLarge is returned for input above the configured byte or pixel budget.
	ErrTooLarge = errors.New("image exceeds the upload size limit")
	// ErrUnsupported is returned for input that is not a decodable image.
	ErrUnsupported = errors.New("unsupported or corrupt image")
)

// Compressor turns a raw uploaded image into an encoded payload.
type Compressor interface {
	Compress(ctx context.Context, raw []byte) (string, error)
}

// JPEGCompressor scales images so the longest edge fits MaxDimension and
// re-encodes them as JPEG.
type JPEGCompressor struct {
	maxDimension  int
	quality       int
	maxInputBytes int64
	maxPixels     int64
	log           *zap.Logger
}

// ensure JPEGCompressor implements the interface
var _ Compressor = (*JPEGCompressor)(nil)

// NewJPEGCompressor creates a compressor from the imaging config.
func NewJPEGCompressor(cfg config.Imaging, log *zap.Logger) *JPEGCompressor {
	c := &JPEGCompressor{
		maxDimension:  cfg.MaxDimension,
		quality:       cfg.Quality,
		maxInputBytes: cfg.MaxInputBytes,
		maxPixels:     cfg.MaxPixels,
		log:           log.Named("imaging"),
	}
	if c.maxDimension <= 0 {
		c.maxDimension = 1200
	}
	if c.quality <= 0 || c.quality > 100 {
		c.quality = 75
	}
	if c.maxPixels <= 0 {
		c.maxPixels = DefaultMaxPixels
	}
	return c
}

// Compress decodes raw (jpeg, png, gif or webp), fits it into the size
// budget and returns a "data:image/jpeg;base64," URI.
func (c *JPEGCompressor) Compress(ctx context.Context, raw []byte) (uri string, err error) {
	start := time.Now()
	defer func() { metrics.RecordCompression(time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.maxInputBytes > 0 && int64(len(raw)) > c.maxInputBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(raw), c.maxInputBytes)
	}

	// Decoding allocates the full pixel buffer, so the header is checked first.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty image", ErrUnsupported)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > c.maxPixels {
		return "", fmt.Errorf("%w: %dx%d pixels (max %d)", ErrTooLarge, cfg.Width, cfg.Height, c.maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), c.maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha channel; flatten transparent pixels onto white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.quality}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}

	c.log.Debug("Compressed screenshot",
		zap.String("format", format),
		zap.Int("src_width", b.Dx()),
		zap.Int("src_height", b.Dy()),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("bytes_in", len(raw)),
		zap.Int("bytes_out", buf.Len()),
	)
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FitWithin scales (w, h) so the longest edge is at most max, keeping the
// aspect ratio. Images already within bounds are returned unchanged.
func FitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w > h {
		return max, roundDiv(h*max, w)
	}
	return roundDiv(w*max, h), max
}

func roundDiv(a, b int) int {
	v := (a + b/2) / b
	if v < 1 {
		return 1
	}
	return v
}

// DecodeDataURI returns the bytes of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	i := bytes.IndexByte([]byte(uri), ',')
	if i < 0 || !bytes.HasPrefix([]byte(uri), []byte("data:")) {
		return nil, errors.New("not a data URI")
	}
	return base64.StdEncoding.DecodeString(uri[i+1:])
}
