package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS text into a Stylesheet tree.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. The optional source parameter
// identifies what is being parsed (for debug logging). Parsing is lenient:
// constructs we do not model (@import, @font-face, @keyframes and friends)
// are skipped, everything else is kept with its source position.
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	run := &parseRun{
		log:    p.log,
		data:   data,
		parser: css.NewParser(input, false),
	}

	sheet := &Stylesheet{Rules: make([]*Node, 0)}

	// selector groups the tokenizer reports before the ruleset body opens
	var pending []string

	for {
		gt, _, data := run.next()

		switch gt {
		case css.ErrorGrammar:
			if err := run.parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			if atRule == "@media" {
				node := &Node{
					Type:     NodeMedia,
					Media:    run.mediaCondition(),
					Position: run.position(),
				}
				node.Rules = run.parseMediaRules()
				p.log.Debug("Parsed @media block", zap.String("query", node.Media), zap.Int("rules", len(node.Rules)))
				sheet.Rules = append(sheet.Rules, node)
			} else {
				run.skipAtRuleBlock()
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// simple @-rule without a block (@import, @charset), out of scope
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.QualifiedRuleGrammar:
			pending = append(pending, splitSelectors(run.prelude())...)

		case css.BeginRulesetGrammar:
			sheet.Rules = append(sheet.Rules, run.parseRuleset(pending))
			pending = nil
		}
	}
}

// parseRun holds the state shared by one Parse invocation. The tokenizer
// drops whitespace from preludes, so textual pieces (media conditions,
// selectors, declaration values) are sliced out of the original buffer by
// grammar offsets instead of being reassembled from tokens.
type parseRun struct {
	log    *zap.Logger
	data   []byte
	parser *css.Parser
	start  int // offset where the current grammar began (with leading trivia)
	end    int // offset just past the current grammar
}

// next advances the parser recording the byte range of the returned grammar.
func (r *parseRun) next() (css.GrammarType, css.TokenType, []byte) {
	r.start = r.parser.Offset()
	gt, tt, data := r.parser.Next()
	r.end = r.parser.Offset()
	return gt, tt, data
}

// position converts the current grammar's start into a line/column pair,
// skipping the leading trivia included in the recorded range.
func (r *parseRun) position() Position {
	off := r.start
	for off < len(r.data) {
		if c := r.data[off]; c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		off++
	}
	line, col, _ := parse.Position(bytes.NewReader(r.data), off)
	return Position{Line: line, Column: col}
}

// prelude returns the current grammar's source text without comments and
// without the trailing block opener or separator.
func (r *parseRun) prelude() string {
	text := stripComments(string(r.data[r.start:r.end]))
	text = strings.TrimSpace(text)
	text = strings.TrimRight(text, "{,;")
	return strings.TrimSpace(text)
}

// mediaCondition returns the condition text of the @media prelude with
// whitespace runs collapsed.
func (r *parseRun) mediaCondition() string {
	cond := strings.TrimPrefix(r.prelude(), "@media")
	return strings.Join(strings.Fields(cond), " ")
}

// declarationValue returns the value text of the current declaration with
// whitespace runs collapsed.
func (r *parseRun) declarationValue() string {
	text := r.prelude()
	if i := strings.Index(text, ":"); i >= 0 {
		text = text[i+1:]
	}
	return strings.Join(strings.Fields(text), " ")
}

// parseRuleset collects selectors and declarations until EndRulesetGrammar.
func (r *parseRun) parseRuleset(pending []string) *Node {
	node := &Node{
		Type:      NodeRule,
		Selectors: append(pending, splitSelectors(r.prelude())...),
		Position:  r.position(),
	}
	for {
		gt, _, data := r.next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return node

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			node.Declarations = append(node.Declarations, Declaration{
				Property: string(data),
				Value:    r.declarationValue(),
				Position: r.position(),
			})
		}
	}
}

// parseMediaRules parses rulesets nested in an @media block until the
// matching EndAtRuleGrammar.
func (r *parseRun) parseMediaRules() []*Node {
	var rules []*Node
	var pending []string
	for {
		gt, _, data := r.next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.QualifiedRuleGrammar:
			pending = append(pending, splitSelectors(r.prelude())...)

		case css.BeginRulesetGrammar:
			rules = append(rules, r.parseRuleset(pending))
			pending = nil

		case css.BeginAtRuleGrammar:
			// nested at-rules inside @media are not modeled
			r.log.Debug("Skipping nested @-rule in media block", zap.String("rule", string(data)))
			r.skipAtRuleBlock()
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (r *parseRun) skipAtRuleBlock() {
	depth := 1
	for depth > 0 {
		gt, _, _ := r.next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// splitSelectors splits a ruleset prelude on commas normalizing inner
// whitespace runs to single spaces.
func splitSelectors(prelude string) []string {
	var selectors []string
	for s := range strings.SplitSeq(prelude, ",") {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// stripComments removes /* ... */ sequences, replacing each with a single
// space so surrounding tokens stay separated.
func stripComments(s string) string {
	for {
		i := strings.Index(s, "/*")
		if i < 0 {
			return s
		}
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return s[:i]
		}
		s = s[:i] + " " + s[i+2+j+2:]
	}
}
