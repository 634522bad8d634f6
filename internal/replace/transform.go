package replace

import (
	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/color-replace-mcp/internal/colorspec"
	"github.com/ironsheep/color-replace-mcp/internal/imaging"
)

// sharedCache memoizes colour decoding across all transforms in the process.
var sharedCache = colorspec.NewCache()

type transformConfig struct {
	cache    *colorspec.Cache
	parallel bool
}

// Option configures Transform.
type Option func(*transformConfig)

// WithCache decodes rule colours through c instead of the package cache.
func WithCache(c *colorspec.Cache) Option {
	return func(cfg *transformConfig) { cfg.cache = c }
}

// WithParallel splits the pixel range across GOMAXPROCS goroutines.
// The result is identical either way; every pixel is independent.
func WithParallel(enabled bool) Option {
	return func(cfg *transformConfig) { cfg.parallel = enabled }
}

// Transform applies rules to every pixel of buf in place and returns buf.
//
// buf.Pix must hold whole 4-byte pixels; a trailing partial pixel is left
// untouched. Callers that need the original pixels must Clone buf first.
func Transform(buf *imaging.Raster, rules RuleSet, opts ...Option) *imaging.Raster {
	cfg := transformConfig{cache: sharedCache}
	for _, opt := range opts {
		opt(&cfg)
	}
	return TransformWith(buf, NewMatcher(rules, cfg.cache), cfg.parallel)
}

// TransformWith is Transform with a prebuilt Matcher.
func TransformWith(buf *imaging.Raster, m *Matcher, parallelize bool) *imaging.Raster {
	if m.Len() == 0 {
		return buf
	}

	pix := buf.Pix
	apply := func(start, end int) {
		for i := start; i < end; i++ {
			p := pix[i*4 : i*4+4 : i*4+4]
			out, ok := m.Match(colorspec.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
			if !ok {
				continue
			}
			p[0], p[1], p[2], p[3] = out.R, out.G, out.B, out.A
		}
	}

	n := len(pix) / 4
	if parallelize {
		parallel.Line(n, apply)
	} else {
		apply(0, n)
	}
	return buf
}
