package untangle

import (
	"mqsplit/css"
)

// Flatten expands every rule nested in the stylesheet's top-level @media
// blocks into one Unit per (rule, selector) pair. The declaration block is
// cloned per selector so every unit is independently mutable. Rules outside
// @media blocks are out of scope and ignored. An empty stylesheet yields an
// empty unit sequence.
func Flatten(sheet *css.Stylesheet) []*Unit {
	var units []*Unit
	for _, media := range sheet.MediaBlocks() {
		for _, rule := range media.Rules {
			for _, sel := range rule.Selectors {
				clone := rule.Clone()
				clone.Selectors = []string{sel}
				units = append(units, &Unit{
					Selector: sel,
					Media:    media.Media,
					Rule:     clone,
					Seq:      len(units),
				})
			}
		}
	}
	return units
}
