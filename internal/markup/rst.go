package markup

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// RSTFrontend parses reStructuredText block structure into the node stream.
//
// It recognizes section titles (underline and overline styles), explicit
// markup (directives, comments, targets, footnotes, substitutions), literal
// blocks introduced by "::", bullet and enumerated lists, field lists,
// definition lists, block quotes, doctest blocks, line blocks and grid and
// simple tables. Inline markup is reduced to its text.
type RSTFrontend struct{}

// Name implements Frontend.
func (RSTFrontend) Name() string { return "rst" }

// Extensions implements Frontend.
func (RSTFrontend) Extensions() []string { return []string{".rst", ".rest"} }

// Nodes implements Frontend.
func (RSTFrontend) Nodes(src []byte) ([]Node, error) {
	if !utf8.Valid(src) {
		return nil, &SyntaxError{Line: invalidUTF8Line(src), Msg: "invalid UTF-8"}
	}

	p := &rstParser{lines: splitLines(string(src))}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.nodes, nil
}

type titleStyle struct {
	char     rune
	overline bool
}

type rstParser struct {
	lines  []string
	nodes  []Node
	styles []titleStyle
	level  int
	titled bool
}

var (
	bulletRe     = regexp.MustCompile(`^([-*+•‣⁃])( +)(\S.*)?$`)
	enumRe       = regexp.MustCompile(`^((?:\d+|#|[a-zA-Z])[.)]|\((?:\d+|#|[a-zA-Z])\))( +)(\S.*)$`)
	fieldRe      = regexp.MustCompile(`^:([^:\s][^:]*):(?:\s+(.*))?$`)
	directiveRe  = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.:+-]*?)::(?:\s+(.*))?$`)
	simpleTblRe  = regexp.MustCompile(`^=+( +=+)+$`)
	substituteRe = regexp.MustCompile(`^\|([^|]+)\|\s+(.*)$`)
	optionRe     = regexp.MustCompile(`^:[\w-]+:`)
)

func (p *rstParser) run() error {
	i := 0
	for i < len(p.lines) {
		line := p.lines[i]

		switch {
		case isBlank(line):
			i++

		case indentOf(line) > 0:
			block, next := p.indentedBlock(i, 1)
			p.content(TagBlockQuote, stripInline(strings.Join(dedent(block), "\n")))
			i = next

		case line == ".." || strings.HasPrefix(line, ".. "):
			i = p.explicit(i)

		default:
			next, handled, err := p.adorned(i)
			if err != nil {
				return err
			}
			if handled {
				i = next
				continue
			}
			i = p.body(i)
		}
	}
	return nil
}

// adorned handles overline titles, underline titles and transitions at i.
func (p *rstParser) adorned(i int) (int, bool, error) {
	line := p.lines[i]

	if ch, n, ok := adornment(line); ok && line != "::" {
		if i+1 < len(p.lines) && !isBlank(p.lines[i+1]) {
			if _, _, isAdorn := adornment(p.lines[i+1]); !isAdorn {
				if i+2 >= len(p.lines) {
					return 0, false, &SyntaxError{Line: i + 1, Msg: "missing matching underline for section title overline"}
				}
				under, _, ok := adornment(p.lines[i+2])
				if !ok {
					return 0, false, &SyntaxError{Line: i + 1, Msg: "missing matching underline for section title overline"}
				}
				if under != ch {
					return 0, false, &SyntaxError{Line: i + 1, Msg: "title overline and underline mismatch"}
				}
				if err := p.openSection(strings.TrimSpace(p.lines[i+1]), titleStyle{char: ch, overline: true}, i+2); err != nil {
					return 0, false, err
				}
				return i + 3, true, nil
			}
		}
		if n >= 4 {
			// Transition.
			return i + 1, true, nil
		}
		return 0, false, nil
	}

	if ch, ok := p.underline(i); ok {
		if err := p.openSection(strings.TrimSpace(line), titleStyle{char: ch}, i+1); err != nil {
			return 0, false, err
		}
		return i + 2, true, nil
	}

	return 0, false, nil
}

// underline reports whether lines[i] is a title underlined by lines[i+1].
func (p *rstParser) underline(i int) (rune, bool) {
	if i+1 >= len(p.lines) {
		return 0, false
	}
	title := p.lines[i]
	if isBlank(title) || indentOf(title) > 0 {
		return 0, false
	}
	if _, _, ok := adornment(title); ok {
		return 0, false
	}
	ch, n, ok := adornment(p.lines[i+1])
	if !ok {
		return 0, false
	}
	if n < 3 && n < utf8.RuneCountInString(strings.TrimSpace(title)) {
		return 0, false
	}
	return ch, true
}

// openSection applies the title-level rules: a known style returns to its
// level, a new style must nest exactly one level below the current section.
func (p *rstParser) openSection(title string, style titleStyle, line int) error {
	idx := -1
	for k, s := range p.styles {
		if s == style {
			idx = k
			break
		}
	}
	if idx < 0 {
		if len(p.styles) != p.level {
			return &SyntaxError{Line: line, Msg: "title level inconsistent"}
		}
		p.styles = append(p.styles, style)
		idx = len(p.styles) - 1
	}

	level := idx + 1
	if level > p.level+1 {
		return &SyntaxError{Line: line, Msg: "title level inconsistent"}
	}
	p.level = level

	title = stripInline(title)
	if !p.titled && level == 1 {
		p.nodes = append(p.nodes, DocumentNode(title))
		p.titled = true
	}
	p.nodes = append(p.nodes, SectionNode(title, level))
	p.content(TagTitle, title)
	return nil
}

// explicit handles a ".." block at i and returns the next line index.
func (p *rstParser) explicit(i int) int {
	rest := strings.TrimSpace(strings.TrimPrefix(p.lines[i], ".."))
	body, next := p.indentedBlock(i+1, 1)
	body = trimBlankEdges(dedent(body))

	switch {
	case strings.HasPrefix(rest, "_"):
		// Hyperlink target.

	case strings.HasPrefix(rest, "["):
		end := strings.Index(rest, "]")
		if end < 0 {
			p.content("comment", joinText(rest, body))
			break
		}
		label := rest[1:end]
		tag := "citation"
		if label == "#" || label == "*" || strings.HasPrefix(label, "#") || isDigits(label) {
			tag = "footnote"
		}
		p.content(tag, stripInline(joinText(strings.TrimSpace(rest[end+1:]), body)))

	case strings.HasPrefix(rest, "|"):
		m := substituteRe.FindStringSubmatch(rest)
		if m == nil {
			break
		}
		if d := directiveRe.FindStringSubmatch(m[2]); d != nil {
			if _, text, ok := directiveContent(strings.ToLower(d[1]), d[2], body); ok {
				p.content("substitution_definition", text)
			}
		}

	default:
		if d := directiveRe.FindStringSubmatch(rest); d != nil {
			if tag, text, ok := directiveContent(strings.ToLower(d[1]), d[2], body); ok {
				p.content(tag, text)
			}
			break
		}
		p.content("comment", joinText(rest, body))
	}

	return next
}

// directiveContent maps a directive to its tag and text.
// ok is false for directives that carry no indexable text.
func directiveContent(name, args string, body []string) (tag, text string, ok bool) {
	content := directiveBody(body)

	switch name {
	case "code", "code-block", "sourcecode", "parsed-literal":
		return TagLiteralBlock, strings.Join(content, "\n"), true
	case "math":
		return TagMathBlock, joinText(args, content), true
	case "image", "highlight", "literalinclude", "include", "raw",
		"currentmodule", "module", "default-role", "role", "contents", "sectnum":
		return "", "", false
	case "figure":
		return "figure", stripInline(strings.Join(content, "\n")), true
	case "toctree":
		return "toctree", strings.Join(content, "\n"), true
	case "list-table", "csv-table", "table":
		return TagTable, stripInline(joinText(args, content)), true
	default:
		return name, stripInline(joinText(args, content)), true
	}
}

// directiveBody drops the leading option list of a dedented directive body.
func directiveBody(body []string) []string {
	k := 0
	for k < len(body) && optionRe.MatchString(strings.TrimSpace(body[k])) {
		k++
	}
	return trimBlankEdges(dedent(body[k:]))
}

// body handles the non-title, non-explicit constructs starting at i.
func (p *rstParser) body(i int) int {
	line := p.lines[i]

	switch {
	case strings.HasPrefix(line, "+-") || strings.HasPrefix(line, "+="):
		return p.gridTable(i)

	case simpleTblRe.MatchString(line):
		return p.simpleTable(i)

	case strings.HasPrefix(line, ">>>"):
		j := i
		for j < len(p.lines) && !isBlank(p.lines[j]) {
			j++
		}
		p.content("doctest_block", strings.Join(p.lines[i:j], "\n"))
		return j

	case line == "|" || strings.HasPrefix(line, "| "):
		var out []string
		j := i
		for j < len(p.lines) && (p.lines[j] == "|" || strings.HasPrefix(p.lines[j], "| ")) {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(p.lines[j], "|")))
			j++
		}
		p.content("line_block", stripInline(strings.Join(out, "\n")))
		return j
	}

	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return p.listItem(i, utf8.RuneCountInString(m[1]+m[2]), m[3])
	}
	if m := enumRe.FindStringSubmatch(line); m != nil {
		return p.listItem(i, len(m[1])+len(m[2]), m[3])
	}
	if m := fieldRe.FindStringSubmatch(line); m != nil {
		cont, next := p.indentedBlock(i+1, 1)
		value := joinText(m[2], trimBlankEdges(dedent(cont)))
		p.content("field", stripInline(strings.TrimSpace(m[1]+": "+value)))
		return next
	}

	// Definition list item: a term line directly followed by an indented definition.
	if i+1 < len(p.lines) && !isBlank(p.lines[i+1]) && indentOf(p.lines[i+1]) > 0 {
		def, next := p.indentedBlock(i+1, 1)
		text := strings.TrimSpace(line) + "\n" + strings.Join(trimBlankEdges(dedent(def)), "\n")
		p.content("definition_list_item", stripInline(text))
		return next
	}

	return p.paragraph(i)
}

// paragraph collects lines up to a blank line, an indented line or a title,
// then handles a trailing "::" literal-block marker.
func (p *rstParser) paragraph(i int) int {
	j := i
	for j < len(p.lines) {
		l := p.lines[j]
		if isBlank(l) || indentOf(l) > 0 {
			break
		}
		if j > i {
			if _, ok := p.underline(j); ok {
				break
			}
		}
		j++
	}

	text := strings.Join(p.lines[i:j], "\n")
	literal := false
	if strings.HasSuffix(text, "::") {
		literal = true
		switch {
		case strings.TrimSpace(text) == "::":
			text = ""
		case strings.HasSuffix(text, " ::"):
			text = strings.TrimRight(strings.TrimSuffix(text, "::"), " ")
		default:
			text = strings.TrimSuffix(text, ":")
		}
	}
	p.content(TagParagraph, stripInline(text))

	if !literal {
		return j
	}

	k := j
	for k < len(p.lines) && isBlank(p.lines[k]) {
		k++
	}
	if k < len(p.lines) && indentOf(p.lines[k]) > 0 {
		block, next := p.indentedBlock(k, 1)
		p.content(TagLiteralBlock, strings.Join(trimBlankEdges(dedent(block)), "\n"))
		return next
	}
	return j
}

// listItem consumes a list item whose text starts after a marker of width columns.
func (p *rstParser) listItem(i, width int, first string) int {
	cont, next := p.indentedBlock(i+1, width)
	cont = trimBlankEdges(dedent(cont))
	p.content(TagListItem, stripInline(joinText(first, cont)))
	return next
}

func (p *rstParser) gridTable(i int) int {
	var rows []string
	j := i
	for j < len(p.lines) {
		l := p.lines[j]
		if !strings.HasPrefix(l, "+") && !strings.HasPrefix(l, "|") {
			break
		}
		if strings.HasPrefix(l, "|") {
			var cells []string
			for _, c := range strings.Split(strings.Trim(l, "|"), "|") {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " "))
			}
		}
		j++
	}
	p.content(TagTable, stripInline(strings.Join(rows, "\n")))
	return j
}

func (p *rstParser) simpleTable(i int) int {
	var rows []string
	j := i + 1
	for j < len(p.lines) {
		l := p.lines[j]
		if simpleTblRe.MatchString(l) {
			if j+1 >= len(p.lines) || isBlank(p.lines[j+1]) {
				j++
				break
			}
		} else if strings.Trim(l, "-= ") != "" {
			rows = append(rows, strings.Join(strings.Fields(l), " "))
		}
		j++
	}
	p.content(TagTable, stripInline(strings.Join(rows, "\n")))
	return j
}

func (p *rstParser) content(tag, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.nodes = append(p.nodes, ContentNode(tag, text))
}

// indentedBlock returns the lines from start that are blank or indented by at
// least min columns, without trailing blank lines, and the index after them.
func (p *rstParser) indentedBlock(start, minIndent int) ([]string, int) {
	end := start
	last := start
	for end < len(p.lines) {
		l := p.lines[end]
		if isBlank(l) {
			end++
			continue
		}
		if indentOf(l) < minIndent {
			break
		}
		end++
		last = end
	}
	return p.lines[start:last], last
}

// adornment reports whether s is a section adornment: two or more repetitions
// of one punctuation character and nothing else.
func adornment(s string) (rune, int, bool) {
	if len(s) < 2 {
		return 0, 0, false
	}
	first, _ := utf8.DecodeRuneInString(s)
	if !strings.ContainsRune(adornmentChars, first) {
		return 0, 0, false
	}
	n := 0
	for _, r := range s {
		if r != first {
			return 0, 0, false
		}
		n++
	}
	return first, n, true
}

const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(expandTabs(l), " \t")
	}
	return lines
}

// expandTabs replaces tabs with spaces up to the next multiple of 8 columns.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := 8 - col%8
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func indentOf(s string) int { return len(s) - len(strings.TrimLeft(s, " ")) }

func dedent(lines []string) []string {
	indent := -1
	for _, l := range lines {
		if isBlank(l) {
			continue
		}
		if n := indentOf(l); indent < 0 || n < indent {
			indent = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		switch {
		case isBlank(l):
			out[i] = ""
		case indent > 0:
			out[i] = l[indent:]
		default:
			out[i] = l
		}
	}
	return out
}

func trimBlankEdges(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinText joins a first-line remainder and following lines with newlines.
func joinText(first string, rest []string) string {
	parts := make([]string, 0, len(rest)+1)
	if first = strings.TrimSpace(first); first != "" {
		parts = append(parts, first)
	}
	parts = append(parts, rest...)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalidUTF8Line(src []byte) int {
	line := 1
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError && size <= 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		src = src[size:]
	}
	return line
}
