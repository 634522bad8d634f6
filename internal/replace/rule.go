package replace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/color-replace-mcp/internal/colorspec"
)

// DefaultTolerance is used when a rule string omits its tolerance.
const DefaultTolerance = 15

// Rule replaces pixels within Tolerance percent of Source with Target.
//
// Source and Target are colour specifications as accepted by colorspec:
// "#RRGGBB", "RRGGBB" or "transparent". They are kept as strings so that a
// bad value only disables the rule instead of rejecting the whole set.
type Rule struct {
	Source    string `json:"source_color"`
	Target    string `json:"target_color"`
	Tolerance int    `json:"tolerance"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s:%s:%d", r.Source, r.Target, r.Tolerance)
}

// RuleSet is an ordered list of rules. The first rule that matches a pixel
// wins; later rules are not consulted for that pixel.
type RuleSet []Rule

// Clone returns an independent copy, so later edits to rs do not leak into
// work that already captured it.
func (rs RuleSet) Clone() RuleSet {
	if rs == nil {
		return nil
	}
	out := make(RuleSet, len(rs))
	copy(out, rs)
	return out
}

// DefaultRules returns the single rule a fresh workspace starts with.
func DefaultRules() RuleSet {
	return RuleSet{{Source: "#FFFFFF", Target: "#000000", Tolerance: DefaultTolerance}}
}

// ParseRule parses "SOURCE:TARGET[:TOLERANCE]", e.g. "#FFFFFF:transparent:20".
//
// Unlike rules arriving through the engine, parsed rules are validated
// strictly: both colours must decode and the tolerance must lie in 0..100.
func ParseRule(s string) (Rule, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Rule{}, fmt.Errorf("rule %q: want SOURCE:TARGET[:TOLERANCE]", s)
	}

	src, err := colorspec.Parse(parts[0])
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q source: %w", s, err)
	}
	dst, err := colorspec.Parse(parts[1])
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q target: %w", s, err)
	}

	tol := DefaultTolerance
	if len(parts) == 3 {
		tol, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q tolerance: %w", s, err)
		}
		if tol < 0 || tol > 100 {
			return Rule{}, fmt.Errorf("rule %q tolerance %d outside 0..100", s, tol)
		}
	}

	return Rule{Source: src.String(), Target: dst.String(), Tolerance: tol}, nil
}

// ParseRules parses each string with ParseRule, preserving order.
func ParseRules(specs []string) (RuleSet, error) {
	rules := make(RuleSet, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
