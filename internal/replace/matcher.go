package replace

import (
	"github.com/ironsheep/color-replace-mcp/internal/colorspec"
)

// compiledRule is a Rule with both colours decoded.
type compiledRule struct {
	source    colorspec.RGBA
	target    colorspec.RGBA
	threshold float64
}

// Matcher evaluates a RuleSet against single pixels.
//
// Colours are decoded once when the Matcher is built. Rules whose source or
// target fails to decode are dropped, which is the same as skipping them for
// every pixel. A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	rules   []compiledRule
	skipped int
}

// NewMatcher decodes rules through cache (which may be nil) and keeps their order.
func NewMatcher(rules RuleSet, cache *colorspec.Cache) *Matcher {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		src, err := cache.Decode(r.Source)
		if err != nil {
			m.skipped++
			continue
		}
		dst, err := cache.Decode(r.Target)
		if err != nil {
			m.skipped++
			continue
		}
		m.rules = append(m.rules, compiledRule{
			source:    src,
			target:    dst,
			threshold: float64(r.Tolerance) / 100,
		})
	}
	return m
}

// Len returns the number of usable rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Skipped returns how many rules were dropped because a colour failed to decode.
func (m *Matcher) Skipped() int {
	return m.skipped
}

// Match returns the replacement for px and true when a rule fires, or px
// unchanged and false when none does.
//
// Rules are tried in order and the first whose source lies within its
// tolerance wins. On a hit the RGB channels always take the target's RGB.
// Alpha only changes when transparency is toggled: if the target or the
// matched source is transparent, alpha becomes the target's alpha; otherwise
// the pixel keeps its own alpha.
func (m *Matcher) Match(px colorspec.RGBA) (colorspec.RGBA, bool) {
	for i := range m.rules {
		r := &m.rules[i]
		if Distance(px, r.source) > r.threshold {
			continue
		}

		out := colorspec.RGBA{R: r.target.R, G: r.target.G, B: r.target.B, A: px.A}
		if r.target.Transparent() || r.source.Transparent() {
			out.A = r.target.A
		}
		return out, true
	}
	return px, false
}

// Match is a convenience for evaluating a single pixel without building a
// Matcher first. Colours are decoded through the package cache.
func Match(px colorspec.RGBA, rules RuleSet) (colorspec.RGBA, bool) {
	return NewMatcher(rules, sharedCache).Match(px)
}
