package untangle

import (
	"math/rand"
	"strings"
	"testing"
)

const reportCSS = `
@media (max-width: 600px) {
  .header { font-size: 14px; }
  .footer { font-size: 12px; }
  .widget { border: none; }
}

@media print {
  .header { display: none; }
  .widget { color: black; }
}
`

// classify routes flattened units the way a resolver would, using a fixed
// selector to origin table.
func classify(units []*Unit, origins map[string]string) []Outcome {
	outcomes := make([]Outcome, 0, len(units))
	for _, u := range units {
		o := Outcome{Unit: u}
		if origin, ok := origins[u.Selector]; ok {
			o.Origin = origin
			u.Origins = []string{origin}
		} else {
			u.Origins = []string{}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

var reportOrigins = map[string]string{
	".header": "src/header.less",
	".footer": "src/footer.less",
	".widget": "src/widget10.less",
}

func TestAggregator_Grouping(t *testing.T) {
	units := Flatten(parseSheet(t, reportCSS))
	if len(units) != 5 {
		t.Fatalf("units = %d, want 5", len(units))
	}

	agg := NewAggregator()
	for _, o := range classify(units, reportOrigins) {
		agg.Add(o)
	}

	groups := agg.Groups()
	if len(groups) != 5 {
		t.Fatalf("groups = %d, want 5 (each file/media pair distinct)", len(groups))
	}

	total := 0
	for _, g := range groups {
		total += len(g.Units)
		for _, u := range g.Units {
			if reportOrigins[u.Selector] != g.File {
				t.Errorf("unit %s landed in group for %s", u.Selector, g.File)
			}
			if u.Media != g.Media {
				t.Errorf("unit %s (media %s) landed in group for media %s", u.Selector, u.Media, g.Media)
			}
		}
	}
	if total != 5 {
		t.Errorf("units across groups = %d, want 5 (no unit in two groups)", total)
	}
}

func TestAggregator_Unresolved(t *testing.T) {
	units := Flatten(parseSheet(t, reportCSS))

	agg := NewAggregator()
	// only .header resolves, everything else stays unresolved
	for _, o := range classify(units, map[string]string{".header": "src/header.less"}) {
		agg.Add(o)
	}

	rep := agg.Assemble()
	if len(rep.Unresolved) != 3 {
		t.Fatalf("unresolved = %d, want 3", len(rep.Unresolved))
	}
	if rep.Resolved() != 2 {
		t.Errorf("resolved = %d, want 2", rep.Resolved())
	}
}

func TestAssemble_DeterministicAcrossCompletionOrders(t *testing.T) {
	baseline := ""
	rnd := rand.New(rand.NewSource(42))

	for run := range 10 {
		units := Flatten(parseSheet(t, reportCSS))
		outcomes := classify(units, reportOrigins)
		rnd.Shuffle(len(outcomes), func(i, j int) { outcomes[i], outcomes[j] = outcomes[j], outcomes[i] })

		agg := NewAggregator()
		for _, o := range outcomes {
			agg.Add(o)
		}
		rep := agg.Assemble()

		var sb strings.Builder
		for _, f := range rep.Files {
			sb.WriteString(f.Path)
			sb.WriteString("\n")
			for _, frag := range f.Fragments {
				sb.WriteString(frag.Sheet.String())
			}
		}
		if run == 0 {
			baseline = sb.String()
			continue
		}
		if sb.String() != baseline {
			t.Fatalf("run %d produced different report:\n%s\nbaseline:\n%s", run, sb.String(), baseline)
		}
	}
}

func TestAssemble_Ordering(t *testing.T) {
	units := Flatten(parseSheet(t, reportCSS))

	agg := NewAggregator()
	for _, o := range classify(units, reportOrigins) {
		agg.Add(o)
	}
	rep := agg.Assemble()

	// files naturally sorted by path
	wantFiles := []string{"src/footer.less", "src/header.less", "src/widget10.less"}
	if len(rep.Files) != len(wantFiles) {
		t.Fatalf("files = %d, want %d", len(rep.Files), len(wantFiles))
	}
	for i, f := range rep.Files {
		if f.Path != wantFiles[i] {
			t.Errorf("file[%d] = %q, want %q", i, f.Path, wantFiles[i])
		}
	}

	// queries within a file follow the source order of their first rule
	header := rep.Files[1]
	if len(header.Fragments) != 2 {
		t.Fatalf("header fragments = %d, want 2", len(header.Fragments))
	}
	if header.Fragments[0].Media != "(max-width: 600px)" || header.Fragments[1].Media != "print" {
		t.Errorf("header fragment order = [%s, %s], want source order", header.Fragments[0].Media, header.Fragments[1].Media)
	}
}

func TestAssemble_NaturalFileOrder(t *testing.T) {
	agg := NewAggregator()
	for _, origin := range []string{"src/part10.less", "src/part2.less", "src/part1.less"} {
		agg.Add(Outcome{
			Unit:   &Unit{Selector: ".x", Media: "screen", Rule: parseSheet(t, ".x { color: red; }").Rules[0]},
			Origin: origin,
		})
	}

	rep := agg.Assemble()
	want := []string{"src/part1.less", "src/part2.less", "src/part10.less"}
	for i, f := range rep.Files {
		if f.Path != want[i] {
			t.Errorf("file[%d] = %q, want %q", i, f.Path, want[i])
		}
	}
}

func TestAssemble_DeclarationsSurviveRoundTrip(t *testing.T) {
	units := Flatten(parseSheet(t, reportCSS))

	agg := NewAggregator()
	for _, o := range classify(units, reportOrigins) {
		agg.Add(o)
	}
	rep := agg.Assemble()

	var widget *FileStyles
	for i := range rep.Files {
		if rep.Files[i].Path == "src/widget10.less" {
			widget = &rep.Files[i]
		}
	}
	if widget == nil {
		t.Fatal("no fragments for src/widget10.less")
	}

	out := widget.Fragments[0].Sheet.String()
	if !strings.Contains(out, "border: none;") {
		t.Errorf("fragment lost declaration:\n%s", out)
	}
	if !strings.Contains(out, "@media (max-width: 600px)") {
		t.Errorf("fragment lost media condition:\n%s", out)
	}
}

func TestPrinter_Output(t *testing.T) {
	units := Flatten(parseSheet(t, reportCSS))

	agg := NewAggregator()
	for _, o := range classify(units, map[string]string{".header": "src/header.less"}) {
		agg.Add(o)
	}
	rep := agg.Assemble()

	var sb strings.Builder
	p := NewPrinter(&sb, false)
	p.Files(rep)
	p.Unmatched(rep)
	p.Summary(rep)

	out := sb.String()
	for _, want := range []string{
		"src/header.less",
		"  @media (max-width: 600px)",
		"  @media print",
		"Unmatched selectors:",
		".footer",
		"no matches",
		"1 file(s), 2 fragment(s), 2 rule(s) attributed, 3 unmatched",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("printer output missing %q\noutput:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("color disabled but ANSI sequences present")
	}
}
