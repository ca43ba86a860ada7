package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/testgrid/internal/model"
)

// Python extracts functions and methods from Python source by following
// indentation. Decorators belong to the unit they precede. Functions nested
// inside other functions stay part of their enclosing unit.
type Python struct {
	Exclude []string
}

type pyLine struct {
	raw     string
	indent  int
	logical bool // first physical line of a statement
	code    bool // carries something other than whitespace or a comment
}

type pyBlock struct {
	indent int
	class  bool
	name   string
	unit   int
}

// ExtractUnits implements Analyzer.
func (p *Python) ExtractUnits(ctx context.Context, item model.SourceItem) ([]model.WorkUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines, err := scanPython(item.Content)
	if err != nil {
		return nil, &ExtractionError{Item: item.ID, Err: err}
	}

	var (
		units     []model.WorkUnit
		starts    []int
		stack     []pyBlock
		decorator = -1
		lastCode  = -1
	)
	closeTo := func(indent int) {
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if b.unit >= 0 {
				units[b.unit].Text = joinLines(lines[starts[b.unit] : lastCode+1])
			}
		}
	}

	for i, ln := range lines {
		if ln.logical {
			closeTo(ln.indent)
			head := strings.TrimSpace(ln.raw)
			switch {
			case strings.HasPrefix(head, "@"):
				if decorator < 0 {
					decorator = i
				}
			case strings.HasPrefix(head, "class "):
				stack = append(stack, pyBlock{indent: ln.indent, class: true, name: identifier(head[len("class "):]), unit: -1})
				decorator = -1
			case strings.HasPrefix(head, "def "), strings.HasPrefix(head, "async def "):
				name := identifier(head[strings.Index(head, "def ")+len("def "):])
				start := i
				if decorator >= 0 {
					start = decorator
				}
				decorator = -1

				b := pyBlock{indent: ln.indent, name: name, unit: -1}
				if u, ok := p.unitFor(stack, name); ok && !excluded(p.Exclude, name) {
					u.ItemID = item.ID
					u.Index = len(units)
					b.unit = len(units)
					units = append(units, u)
					starts = append(starts, start)
				}
				stack = append(stack, b)
			default:
				decorator = -1
			}
		}
		if ln.code {
			lastCode = i
		}
	}
	closeTo(0)
	return units, nil
}

// unitFor decides what a def found under stack is. Nested functions are not
// units of their own.
func (p *Python) unitFor(stack []pyBlock, name string) (model.WorkUnit, bool) {
	if len(stack) == 0 {
		return model.WorkUnit{ID: name, Kind: model.KindFunction, Name: name}, true
	}
	if !stack[len(stack)-1].class {
		return model.WorkUnit{}, false
	}
	var classes []string
	for _, b := range stack {
		if b.class {
			classes = append(classes, b.name)
		}
	}
	recv := strings.Join(classes, ".")
	return model.WorkUnit{ID: recv + "." + name, Kind: model.KindMethod, Name: name, Receiver: recv}, true
}

func joinLines(lines []pyLine) string {
	var sb strings.Builder
	for _, ln := range lines {
		sb.WriteString(ln.raw)
	}
	return sb.String()
}

func identifier(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r > 0x7f)
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

func indentOf(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 8 - n%8
		default:
			return n
		}
	}
	return n
}

// scanPython splits content into physical lines and marks which of them
// start a statement, tracking strings, brackets and explicit continuations.
func scanPython(content string) ([]pyLine, error) {
	raws := strings.SplitAfter(content, "\n")
	if len(raws) > 0 && raws[len(raws)-1] == "" {
		raws = raws[:len(raws)-1]
	}

	var (
		lines     = make([]pyLine, 0, len(raws))
		triple    string
		depth     int
		continued bool
	)
	for n, raw := range raws {
		s := strings.TrimRight(raw, "\r\n")
		trimmed := strings.TrimLeft(s, " \t")
		starts := triple == "" && depth == 0 && !continued
		comment := strings.HasPrefix(trimmed, "#")
		lines = append(lines, pyLine{
			raw:     raw,
			indent:  indentOf(s),
			logical: starts && trimmed != "" && !comment,
			code:    trimmed != "" && (!comment || triple != ""),
		})

		i, commented := 0, false
	scan:
		for i < len(s) {
			if triple != "" {
				end := strings.Index(s[i:], triple)
				if end < 0 {
					break
				}
				i += end + len(triple)
				triple = ""
				continue
			}
			switch c := s[i]; c {
			case '#':
				commented = true
				break scan
			case '"', '\'':
				q := strings.Repeat(string(c), 3)
				if strings.HasPrefix(s[i:], q) {
					triple = q
					i += 3
					continue
				}
				end := closingQuote(s, i+1, c)
				if end < 0 {
					return nil, fmt.Errorf("line %d: unterminated string literal", n+1)
				}
				i = end + 1
				continue
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("line %d: unmatched '%c'", n+1, c)
				}
			}
			i++
		}
		continued = triple == "" && !commented && strings.HasSuffix(s, "\\")
	}

	switch {
	case triple != "":
		return nil, errors.New("unterminated triple-quoted string")
	case depth != 0:
		return nil, errors.New("unclosed bracket at end of file")
	}
	return lines, nil
}

func closingQuote(s string, from int, q byte) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i
		}
	}
	return -1
}
