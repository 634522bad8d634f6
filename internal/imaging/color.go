package imaging

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor is a sampled colour without alpha.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor is a sampled colour with straight (non-premultiplied) alpha.
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor is the hue, saturation and lightness of a sample, rounded to
// whole degrees and percent.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult is one eyedropper reading. Hex is the form replacement rules
// take; it never carries alpha, which is reported in RGBA.A.
type ColorResult struct {
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGB  RGBColor  `json:"rgb"`  // RGB components
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL  HSLColor  `json:"hsl"`  // HSL representation
}

// SampleColor reads the pixel at (x, y), with the origin at the top-left of
// img's bounds. Coordinates outside the bounds are an error.
//
// The reading is straight 8-bit RGBA, the same values a Raster holds, so the
// returned Hex can be pasted into a rule's source as is.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	r8, g8, b8, a8 := c.R, c.G, c.B, c.A

	return &ColorResult{
		Hex:  fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:  RGBColor{R: r8, G: g8, B: b8},
		RGBA: RGBAColor{R: r8, G: g8, B: b8, A: a8},
		HSL:  rgbToHSL(r8, g8, b8),
	}, nil
}

// LabeledPoint is a pixel to sample. Label is echoed back in the result.
type LabeledPoint struct {
	X     int    // X coordinate (0-based)
	Y     int    // Y coordinate (0-based)
	Label string // Optional descriptive label for this point
}

// LabeledColorResult is a sample together with the point it was taken at.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"` // Optional label (empty if not provided)
	X     int         `json:"x"`               // X coordinate that was sampled
	Y     int         `json:"y"`               // Y coordinate that was sampled
	Color ColorResult `json:"color"`           // The color at this location
}

// MultiColorResult holds samples in the order the points were given.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"` // Color samples in input order
}

// SampleColorsMulti samples every point, keeping each point's label. One
// point out of bounds fails the whole call.
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		sample, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *sample,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
//   - Width = X2 - X1, Height = Y2 - Y1
type Region struct {
	X1 int // Left edge X coordinate (inclusive)
	Y1 int // Top edge Y coordinate (inclusive)
	X2 int // Right edge X coordinate (exclusive)
	Y2 int // Bottom edge Y coordinate (exclusive)
}

// ColorFrequency represents a color and its occurrence frequency in an image.
//
// Fully transparent pixels are grouped under the Hex value "transparent" so the
// entry can be used directly as a replacement rule source.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized) or "transparent"
	Percentage float64  `json:"percentage"` // Percentage of pixels with this color (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (quantized)
}

// DominantColorsResult contains the most frequently occurring colors in an image.
//
// Colors are sorted by frequency in descending order (most common first).
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"` // Colors sorted by frequency (descending)
}

// DominantColors extracts the N most common colors from an image or region.
//
// The result is meant for picking rule source colours: the most common
// entries are usually the background and the main fills of a logo or icon.
//
// Parameters:
//   - img: The source image to analyze.
//   - count: Maximum number of colors to return.
//   - region: Optional rectangular region to analyze. If nil, the entire image
//     is analyzed.
//
// # Color Quantization
//
// To group similar colors, RGB values are quantized per component:
//
//	quantized = (original / 16) * 16
//
// For example, colors #F0F0F0 and #FAFAFA would both be quantized to #F0F0F0.
func DominantColors(img image.Image, count int, region *Region) (*DominantColorsResult, error) {
	bounds := img.Bounds()
	if region != nil {
		bounds = image.Rect(region.X1, region.Y1, region.X2, region.Y2).Intersect(bounds)
		if bounds.Empty() {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) does not overlap the image",
				region.X1, region.Y1, region.X2, region.Y2)
		}
	}

	type bucket struct {
		rgb         RGBColor
		transparent bool
	}
	counts := make(map[bucket]int)
	totalPixels := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			totalPixels++
			if a == 0 {
				counts[bucket{transparent: true}]++
				continue
			}
			// RGBA() is premultiplied; undo it before quantizing
			r8 := uint8((r * 0xffff / a >> 8) / 16 * 16)
			g8 := uint8((g * 0xffff / a >> 8) / 16 * 16)
			b8 := uint8((b * 0xffff / a >> 8) / 16 * 16)
			counts[bucket{rgb: RGBColor{R: r8, G: g8, B: b8}}]++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, cnt := range counts {
		hex := fmt.Sprintf("#%02X%02X%02X", k.rgb.R, k.rgb.G, k.rgb.B)
		if k.transparent {
			hex = "transparent"
		}
		colors = append(colors, ColorFrequency{
			Hex:        hex,
			Percentage: float64(cnt) / float64(totalPixels) * 100,
			RGB:        k.rgb,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}

	return &DominantColorsResult{Colors: colors}, nil
}

// rgbToHSL converts 8-bit RGB values to HSL color space.
//
// Returns HSLColor with:
//   - H: 0-360 (degrees on color wheel)
//   - S: 0-100 (percentage)
//   - L: 0-100 (percentage)
func rgbToHSL(r, g, b uint8) HSLColor {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	h, s, l := c.Hsl()
	if r == g && g == b {
		h, s = 0, 0
	}
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
