package untangle

// groupKey identifies an origin group.
type groupKey struct {
	file  string
	media string
}

// OriginGroup holds the units attributed to one (origin file, media query)
// pair. Groups are created lazily on first assignment and never deleted.
type OriginGroup struct {
	File  string
	Media string
	Units []*Unit
}

// Aggregator funnels resolver completions into origin groups and the
// unresolved collection. It is the single consumer of the resolution stream,
// so its state needs no locking, and it accepts completions in any order.
type Aggregator struct {
	groups     map[groupKey]*OriginGroup
	order      []groupKey
	unresolved []*Unit
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{groups: make(map[groupKey]*OriginGroup)}
}

// Add routes one classified unit: attributed units join their origin group,
// everything else (zero candidates, several candidates, provider failure)
// joins the unresolved collection. No unit is ever placed in more than one
// group.
func (a *Aggregator) Add(o Outcome) {
	if !o.Resolved() {
		a.unresolved = append(a.unresolved, o.Unit)
		return
	}

	key := groupKey{file: o.Origin, media: o.Unit.Media}
	g, ok := a.groups[key]
	if !ok {
		g = &OriginGroup{File: o.Origin, Media: o.Unit.Media}
		a.groups[key] = g
		a.order = append(a.order, key)
	}
	g.Units = append(g.Units, o.Unit)
}

// Groups returns the origin groups in first-creation order.
func (a *Aggregator) Groups() []*OriginGroup {
	groups := make([]*OriginGroup, 0, len(a.order))
	for _, key := range a.order {
		groups = append(groups, a.groups[key])
	}
	return groups
}
