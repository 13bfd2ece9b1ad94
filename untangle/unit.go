// Package untangle implements the media query attribution pipeline: rules
// nested in @media blocks are flattened into single-selector units, each unit
// is attributed to the source file that references its selector, and
// attributed units are regrouped into per-file media query fragments.
package untangle

import (
	"strings"

	"mqsplit/css"
)

// Unit is the atomic work item: one selector of one rule inside one @media
// block. A rule with N selectors produces N units, each owning an independent
// copy of the declaration block.
type Unit struct {
	// Selector is the single selector this unit represents.
	Selector string
	// Media is the condition of the enclosing @media block.
	Media string
	// Rule is the unit's exclusive single-selector copy of the original
	// rule node, safe to mutate without affecting sibling units.
	Rule *css.Node
	// Origins holds the candidate origin files that survived filtering.
	// Nil until resolution completes, set exactly once.
	Origins []string
	// Seq is the unit's position in source order, assigned at flatten time.
	Seq int
}

// Position returns the source position of the originating rule.
func (u *Unit) Position() css.Position {
	if u.Rule == nil {
		return css.Position{}
	}
	return u.Rule.Position
}

// Token derives the search token from the selector: everything up to the
// first whitespace, anchoring descendant selectors on their leading simple
// selector. Known limitation: selectors carrying spaces inside :not(...) or
// [attr="a b"] are truncated the same way.
func (u *Unit) Token() string {
	if i := strings.IndexAny(u.Selector, " \t"); i >= 0 {
		return u.Selector[:i]
	}
	return u.Selector
}
