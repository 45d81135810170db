package faces

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// preparedImage is the JPEG fed to the engine. scaleX/scaleY map its pixels back to the source image.
type preparedImage struct {
	data   []byte
	scaleX float64
	scaleY float64
}

// toSource maps a rectangle found in the prepared image to source image coordinates
func (p *preparedImage) toSource(r image.Rectangle) image.Rectangle {
	if p.scaleX == 1 && p.scaleY == 1 {
		return r
	}
	return image.Rect(
		int(math.Round(float64(r.Min.X)*p.scaleX)),
		int(math.Round(float64(r.Min.Y)*p.scaleY)),
		int(math.Round(float64(r.Max.X)*p.scaleX)),
		int(math.Round(float64(r.Max.Y)*p.scaleY)),
	)
}

// prepareImage returns JPEG data the engine can consume. JPEGs within maxSize pass through untouched.
func prepareImage(data []byte, maxSize uint) (*preparedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", err)
	}
	fits := maxSize == 0 || (uint(cfg.Width) <= maxSize && uint(cfg.Height) <= maxSize)
	if format == "jpeg" && fits {
		return &preparedImage{data: data, scaleX: 1, scaleY: 1}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s image: %w", format, err)
	}
	result := &preparedImage{scaleX: 1, scaleY: 1}
	if !fits {
		img = resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)
		size := img.Bounds().Size()
		result.scaleX = float64(cfg.Width) / float64(size.X)
		result.scaleY = float64(cfg.Height) / float64(size.Y)
	}
	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	result.data = buf.Bytes()
	return result, nil
}
