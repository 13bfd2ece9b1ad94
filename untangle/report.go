package untangle

import (
	"cmp"
	"slices"

	"github.com/maruel/natural"

	"mqsplit/css"
)

// Fragment is a synthesized @media block holding the rules one origin file
// owns under one media query.
type Fragment struct {
	Media string
	Sheet *css.Stylesheet
}

// FileStyles lists the fragments attributed to a single origin file.
type FileStyles struct {
	Path      string
	Fragments []Fragment
}

// Report is the terminal pipeline structure: per-file media query fragments
// plus the units that could not be attributed to a single origin.
type Report struct {
	Files      []FileStyles
	Unresolved []*Unit
}

// Assemble builds the final report from the aggregated groups. Call it
// exactly once, after every dispatched unit has been classified - assembling
// earlier would mis-group rules whose origin is still pending.
//
// Resolution completes in nondeterministic order, so ordering is re-derived
// deterministically: units within a fragment follow source order, queries
// within a file follow the source order of their first rule, files are
// naturally sorted by path. Group membership itself is order-independent.
func (a *Aggregator) Assemble() *Report {
	perFile := make(map[string][]*OriginGroup)
	var files []string

	for _, g := range a.Groups() {
		slices.SortFunc(g.Units, func(x, y *Unit) int { return cmp.Compare(x.Seq, y.Seq) })
		if _, ok := perFile[g.File]; !ok {
			files = append(files, g.File)
		}
		perFile[g.File] = append(perFile[g.File], g)
	}

	slices.SortFunc(files, func(x, y string) int {
		if x == y {
			return 0
		}
		if natural.Less(x, y) {
			return -1
		}
		return 1
	})

	rep := &Report{}
	for _, f := range files {
		groups := perFile[f]
		slices.SortFunc(groups, func(x, y *OriginGroup) int { return cmp.Compare(x.Units[0].Seq, y.Units[0].Seq) })

		fs := FileStyles{Path: f}
		for _, g := range groups {
			nodes := make([]*css.Node, 0, len(g.Units))
			for _, u := range g.Units {
				nodes = append(nodes, u.Rule)
			}
			fs.Fragments = append(fs.Fragments, Fragment{
				Media: g.Media,
				Sheet: css.WrapMedia(g.Media, nodes),
			})
		}
		rep.Files = append(rep.Files, fs)
	}

	rep.Unresolved = slices.Clone(a.unresolved)
	slices.SortFunc(rep.Unresolved, func(x, y *Unit) int { return cmp.Compare(x.Seq, y.Seq) })
	return rep
}

// Resolved returns the total number of units placed into fragments.
func (r *Report) Resolved() int {
	n := 0
	for _, f := range r.Files {
		for _, frag := range f.Fragments {
			for _, node := range frag.Sheet.Rules {
				n += len(node.Rules)
			}
		}
	}
	return n
}
