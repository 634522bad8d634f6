package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrMalformedRaster is returned when a Raster's pixel slice does not hold
// exactly Width*Height non-premultiplied RGBA pixels.
var ErrMalformedRaster = errors.New("malformed raster")

// Raster is a raw pixel buffer: Width × Height pixels, 4 bytes each
// (R, G, B, A, non-premultiplied), row-major and contiguous.
//
// A Raster has no internal locking. Whoever holds it for a transform owns it
// exclusively until the transform returns; callers needing the original
// pixels must Clone first.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// NewRaster allocates a zeroed (fully transparent) raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// FromImage copies any image.Image into a new Raster.
//
// The conversion goes through imaging.Clone, which normalizes every source
// colour model (paletted, YCbCr, 16-bit, premultiplied) to 8-bit NRGBA and
// rebases the bounds to the origin.
func FromImage(img image.Image) *Raster {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &Raster{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// Validate checks the buffer shape invariant.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil raster", ErrMalformedRaster)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrMalformedRaster, r.Width, r.Height)
	}
	if len(r.Pix)%4 != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformedRaster, len(r.Pix))
	}
	if want := r.Width * r.Height * 4; len(r.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, have %d", ErrMalformedRaster, r.Width, r.Height, want, len(r.Pix))
	}
	return nil
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]byte, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Pix: pix}
}

// Image wraps the raster as an *image.NRGBA. The pixel slice is shared, not copied.
func (r *Raster) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// PixelCount returns the number of 4-byte pixels in Pix.
func (r *Raster) PixelCount() int {
	return len(r.Pix) / 4
}
