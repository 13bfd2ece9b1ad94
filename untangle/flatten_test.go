package untangle

import (
	"testing"

	"go.uber.org/zap"

	"mqsplit/css"
)

func parseSheet(t *testing.T, text string) *css.Stylesheet {
	t.Helper()
	return css.NewParser(zap.NewNop()).Parse([]byte(text))
}

func TestFlatten_OneUnitPerSelector(t *testing.T) {
	sheet := parseSheet(t, `
@media (max-width: 600px) {
  .a, .b, .c { color: red; }
  .d { color: blue; }
}
@media print {
  body { margin: 0; }
}
`)

	units := Flatten(sheet)
	if len(units) != 5 {
		t.Fatalf("units = %d, want 5", len(units))
	}

	wantSelectors := []string{".a", ".b", ".c", ".d", "body"}
	for i, u := range units {
		if u.Selector != wantSelectors[i] {
			t.Errorf("unit[%d] selector = %q, want %q", i, u.Selector, wantSelectors[i])
		}
		if u.Seq != i {
			t.Errorf("unit[%d] seq = %d, want %d", i, u.Seq, i)
		}
		if len(u.Rule.Selectors) != 1 || u.Rule.Selectors[0] != u.Selector {
			t.Errorf("unit[%d] rule selectors = %v, want [%s]", i, u.Rule.Selectors, u.Selector)
		}
	}

	for i, want := range []string{"(max-width: 600px)", "(max-width: 600px)", "(max-width: 600px)", "(max-width: 600px)", "print"} {
		if units[i].Media != want {
			t.Errorf("unit[%d] media = %q, want %q", i, units[i].Media, want)
		}
	}
}

func TestFlatten_UnitsAreIndependent(t *testing.T) {
	sheet := parseSheet(t, `
@media screen {
  .a, .b { width: 50%; }
}
`)

	units := Flatten(sheet)
	if len(units) != 2 {
		t.Fatalf("units = %d, want 2", len(units))
	}

	units[0].Rule.Declarations[0].Value = "100%"
	if got := units[1].Rule.Declarations[0].Value; got != "50%" {
		t.Errorf("sibling unit declaration changed to %q after mutation", got)
	}

	// original stylesheet node is untouched as well
	orig := sheet.MediaBlocks()[0].Rules[0]
	if got := orig.Declarations[0].Value; got != "50%" {
		t.Errorf("source rule declaration changed to %q after mutation", got)
	}
}

func TestFlatten_IgnoresRulesOutsideMedia(t *testing.T) {
	sheet := parseSheet(t, `
.top { color: red; }
@media print {
  .inside { color: blue; }
}
.bottom { color: green; }
`)

	units := Flatten(sheet)
	if len(units) != 1 {
		t.Fatalf("units = %d, want 1", len(units))
	}
	if units[0].Selector != ".inside" {
		t.Errorf("selector = %q, want .inside", units[0].Selector)
	}
}

func TestFlatten_EmptyStylesheet(t *testing.T) {
	if units := Flatten(parseSheet(t, "")); len(units) != 0 {
		t.Errorf("units = %d, want 0", len(units))
	}
	if units := Flatten(parseSheet(t, ".a { color: red; }")); len(units) != 0 {
		t.Errorf("units from media-free sheet = %d, want 0", len(units))
	}
}

func TestUnit_Token(t *testing.T) {
	cases := []struct {
		selector string
		want     string
	}{
		{".sidebar", ".sidebar"},
		{".nav > li", ".nav"},
		{"#main .content a:hover", "#main"},
		{"ul\tli", "ul"},
		{"*", "*"},
	}
	for _, tc := range cases {
		u := &Unit{Selector: tc.selector}
		if got := u.Token(); got != tc.want {
			t.Errorf("Token(%q) = %q, want %q", tc.selector, got, tc.want)
		}
	}
}
