// Package colorspec parses user-supplied colour specifications into RGBA samples.
//
// A specification is either a 6-digit hex string, optionally prefixed with
// '#', or the transparency sentinel "transparent". The empty string is also
// treated as transparent.
//
// # Decoding
//
//   - "transparent" (any case) or "" -> {0, 0, 0, 0}
//   - "#RRGGBB" or "RRGGBB"          -> {R, G, B, 255}
//
// Anything else fails with ErrInvalidHex. Decoding is pure, so results may be
// memoized per specification string; see Cache.
package colorspec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Transparent is the transparency sentinel accepted wherever a colour is expected.
const Transparent = "transparent"

// ErrInvalidHex is returned for specifications that are neither the sentinel
// nor a 6-digit hex colour.
var ErrInvalidHex = errors.New("invalid hex color")

// RGBA is a colour sample with 8-bit channels.
//
// A == 0 marks a fully transparent sample; its R, G and B are not meaningful
// when comparing two transparent samples.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Transparent reports whether the sample has zero alpha.
func (c RGBA) Transparent() bool {
	return c.A == 0
}

// Hex formats the RGB channels as "#RRGGBB". Alpha is not included.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Spec is an immutable, validated colour specification.
type Spec struct {
	transparent bool
	hex         string // normalized "#RRGGBB", empty when transparent
}

// Parse validates s and returns its normalized Spec.
//
// Surrounding whitespace is ignored. The sentinel "transparent" matches in any
// letter case, and an empty or blank string also means transparent. A hex
// colour is six hex digits with an optional leading "#".
func Parse(s string) (Spec, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, Transparent) {
		return Spec{transparent: true}, nil
	}

	digits := strings.TrimPrefix(trimmed, "#")
	if len(digits) != 6 || !isHex(digits) {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return Spec{hex: "#" + strings.ToUpper(digits)}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// IsTransparent reports whether the spec is the transparency sentinel.
func (s Spec) IsTransparent() bool {
	return s.transparent
}

// String returns the normalized form: "transparent" or "#RRGGBB".
func (s Spec) String() string {
	if s.transparent {
		return Transparent
	}
	return s.hex
}

// RGBA converts the spec to its sample value.
func (s Spec) RGBA() RGBA {
	if s.transparent {
		return RGBA{}
	}
	// hex was validated by Parse, colorful.Hex cannot fail here
	c, err := colorful.Hex(s.hex)
	if err != nil {
		return RGBA{}
	}
	r, g, b := c.RGB255()
	return RGBA{R: r, G: g, B: b, A: 255}
}

// Decode parses a colour specification directly into an RGBA sample.
func Decode(s string) (RGBA, error) {
	spec, err := Parse(s)
	if err != nil {
		return RGBA{}, err
	}
	return spec.RGBA(), nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
