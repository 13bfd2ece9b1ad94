package css

import (
	"fmt"
	"io"
	"strings"
)

// NodeType tags a stylesheet node.
type NodeType int

const (
	NodeRule  NodeType = iota // plain ruleset (selectors + declarations)
	NodeMedia                 // @media block with nested rulesets
)

func (t NodeType) String() string {
	switch t {
	case NodeRule:
		return "rule"
	case NodeMedia:
		return "media"
	default:
		return "unknown"
	}
}

// Position locates a node in the original stylesheet text for diagnostics.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Declaration is a single "property: value" pair. Declaration order within a
// rule is preserved from the source.
type Declaration struct {
	Property string
	Value    string
	Position Position
}

// Node is a single stylesheet item. For NodeRule Selectors and Declarations
// are set, for NodeMedia Media holds the query condition and Rules the nested
// rulesets.
type Node struct {
	Type         NodeType
	Selectors    []string
	Declarations []Declaration
	Media        string
	Rules        []*Node
	Position     Position
}

// Clone returns an independent deep copy of the node. Mutating the copy (or
// anything reachable from it) never affects the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type:     n.Type,
		Media:    n.Media,
		Position: n.Position,
	}
	if n.Selectors != nil {
		c.Selectors = append(make([]string, 0, len(n.Selectors)), n.Selectors...)
	}
	if n.Declarations != nil {
		c.Declarations = append(make([]Declaration, 0, len(n.Declarations)), n.Declarations...)
	}
	for _, r := range n.Rules {
		c.Rules = append(c.Rules, r.Clone())
	}
	return c
}

// Stylesheet is a parsed stylesheet - a flat list of top-level nodes in
// source order.
type Stylesheet struct {
	Rules []*Node
}

// MediaBlocks returns all top-level @media nodes in source order.
func (s *Stylesheet) MediaBlocks() []*Node {
	var blocks []*Node
	for _, n := range s.Rules {
		if n.Type == NodeMedia {
			blocks = append(blocks, n)
		}
	}
	return blocks
}

// WrapMedia builds a minimal stylesheet fragment holding a single synthesized
// @media node with the given rules. This is the only wrapper the serializer
// needs, a full top-level node is never constructed from scratch.
func WrapMedia(query string, rules []*Node) *Stylesheet {
	return &Stylesheet{
		Rules: []*Node{{
			Type:  NodeMedia,
			Media: query,
			Rules: rules,
		}},
	}
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, n := range s.Rules {
		var cnt int
		var err error

		switch n.Type {
		case NodeMedia:
			cnt, err = writeMedia(w, n)
		case NodeRule:
			cnt, err = writeRule(w, n, "")
		}

		total += int64(cnt)
		if err != nil {
			return total, err
		}

		// blank line between items (except after last)
		if i < len(s.Rules)-1 {
			cnt, err = fmt.Fprint(w, "\n")
			total += int64(cnt)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the stylesheet text.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single ruleset with the given line indent.
func writeRule(w io.Writer, n *Node, indent string) (int, error) {
	var total int
	cnt, err := fmt.Fprintf(w, "%s%s {\n", indent, strings.Join(n.Selectors, ",\n"+indent))
	total += cnt
	if err != nil {
		return total, err
	}
	for _, d := range n.Declarations {
		cnt, err = fmt.Fprintf(w, "%s  %s: %s;\n", indent, d.Property, d.Value)
		total += cnt
		if err != nil {
			return total, err
		}
	}
	cnt, err = fmt.Fprintf(w, "%s}\n", indent)
	total += cnt
	return total, err
}

// writeMedia writes an @media block with its nested rulesets.
func writeMedia(w io.Writer, n *Node) (int, error) {
	var total int
	cnt, err := fmt.Fprintf(w, "@media %s {\n", n.Media)
	total += cnt
	if err != nil {
		return total, err
	}
	for i, r := range n.Rules {
		cnt, err = writeRule(w, r, "  ")
		total += cnt
		if err != nil {
			return total, err
		}
		if i < len(n.Rules)-1 {
			cnt, err = fmt.Fprint(w, "\n")
			total += cnt
			if err != nil {
				return total, err
			}
		}
	}
	cnt, err = fmt.Fprint(w, "}\n")
	total += cnt
	return total, err
}
