package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// PreviewResult contains a scaled rendering of a raster.
type PreviewResult struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	ImageBase64    string `json:"image_base64"`
	MimeType       string `json:"mime_type"`
}

// Preview renders r as a base64 PNG scaled down to fit within maxWidth ×
// maxHeight, preserving aspect ratio. Images already inside the box are not
// enlarged. A non-positive limit leaves that dimension unconstrained.
func Preview(r *Raster, maxWidth, maxHeight int) (*PreviewResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Width == 0 || r.Height == 0 {
		return nil, fmt.Errorf("cannot preview empty %dx%d raster", r.Width, r.Height)
	}

	if maxWidth <= 0 {
		maxWidth = r.Width
	}
	if maxHeight <= 0 {
		maxHeight = r.Height
	}

	img := imaging.Fit(r.Image(), maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:          img.Bounds().Dx(),
		Height:         img.Bounds().Dy(),
		OriginalWidth:  r.Width,
		OriginalHeight: r.Height,
		ImageBase64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:       "image/png",
	}, nil
}
