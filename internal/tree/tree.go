// Package tree parses Newick trees and lays them out as box-drawing lines.
package tree

import (
	"errors"
	"strings"
	"unicode"
)

type Node struct {
	Name     string
	Children []*Node
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Leaves returns leaf names in depth-first order.
func (n *Node) Leaves() []string {
	if n.IsLeaf() {
		return []string{n.Name}
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

var (
	ErrMalformed       = errors.New("malformed Newick tree")
	ErrMissingNodeName = errors.New("missing node name")
	ErrMissingLeafName = errors.New("missing leaf name")
)

func ParseNewick(input string) (*Node, error) {
	p := &parser{chars: []rune(input)}
	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == ';' {
		p.pos++
	}
	return node, nil
}

// LeafRange is an inclusive range of leaf positions in layout order.
type LeafRange struct {
	Lo, Hi int
}

func (r *LeafRange) contains(i int) bool {
	return r != nil && i >= r.Lo && i <= r.Hi
}

// Layout renders one line per leaf and returns the leaf names in the same
// order. Leaves inside sel are drawn with heavy branches.
func Layout(root *Node, sel *LeafRange) ([]string, []string, error) {
	l := &layout{sel: sel}
	if root.IsLeaf() {
		l.leaf(root, "", "└─")
	} else {
		l.build(root, "")
	}
	for _, name := range l.order {
		if name == "" {
			return nil, nil, ErrMissingLeafName
		}
	}
	return l.lines, l.order, nil
}

// Width is the display width of the widest rendered line.
func Width(lines []string) int {
	w := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > w {
			w = n
		}
	}
	return w
}

type layout struct {
	sel   *LeafRange
	lines []string
	order []string
}

func (l *layout) build(node *Node, prefix string) {
	count := len(node.Children)
	for i, child := range node.Children {
		last := i+1 == count
		branch := "├─"
		childPrefix := prefix + "│ "
		if last {
			branch = "└─"
			childPrefix = prefix + "  "
		}
		if child.IsLeaf() {
			l.leaf(child, prefix, branch)
		} else {
			l.build(child, childPrefix)
		}
	}
}

func (l *layout) leaf(node *Node, prefix, branch string) {
	if l.sel.contains(len(l.order)) {
		branch = strings.NewReplacer("├─", "┝━", "└─", "┕━").Replace(branch)
	}
	l.lines = append(l.lines, prefix+branch+node.Name)
	l.order = append(l.order, node.Name)
}

type parser struct {
	chars []rune
	pos   int
}

func (p *parser) peek() rune {
	if p.pos >= len(p.chars) {
		return 0
	}
	return p.chars[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.chars) && unicode.IsSpace(p.chars[p.pos]) {
		p.pos++
	}
}

func (p *parser) parseNode() (*Node, error) {
	p.skipSpace()
	if p.peek() != '(' {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		p.skipBranchLength()
		return &Node{Name: name}, nil
	}
	p.pos++
	node := &Node{}
	for {
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ')':
			p.pos++
		default:
			return nil, ErrMalformed
		}
		break
	}
	p.skipSpace()
	switch p.peek() {
	case ':', ',', ')', ';', 0:
	default:
		node.Name, _ = p.parseName()
	}
	p.skipBranchLength()
	return node, nil
}

func (p *parser) parseName() (string, error) {
	p.skipSpace()
	if p.peek() == '\'' {
		return p.parseQuoted()
	}
	start := p.pos
	for p.pos < len(p.chars) {
		c := p.chars[p.pos]
		if strings.ContainsRune(":,)(;", c) || unicode.IsSpace(c) {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", ErrMissingNodeName
	}
	return string(p.chars[start:p.pos]), nil
}

// parseQuoted reads a single-quoted name; a doubled quote is a literal one.
func (p *parser) parseQuoted() (string, error) {
	p.pos++
	var b strings.Builder
	for p.pos < len(p.chars) {
		c := p.chars[p.pos]
		p.pos++
		if c != '\'' {
			b.WriteRune(c)
			continue
		}
		if p.peek() == '\'' {
			b.WriteRune(c)
			p.pos++
			continue
		}
		if b.Len() == 0 {
			return "", ErrMissingNodeName
		}
		return b.String(), nil
	}
	return "", ErrMalformed
}

func (p *parser) skipBranchLength() {
	p.skipSpace()
	if p.peek() != ':' {
		return
	}
	p.pos++
	for p.pos < len(p.chars) {
		c := p.chars[p.pos]
		if c == ',' || c == ')' || c == ';' || unicode.IsSpace(c) {
			break
		}
		p.pos++
	}
}

// Format writes the tree back as Newick. Names holding whitespace or Newick
// punctuation are single-quoted.
func Format(root *Node) string {
	var b strings.Builder
	writeNode(&b, root)
	b.WriteByte(';')
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if !n.IsLeaf() {
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNode(b, c)
		}
		b.WriteByte(')')
	}
	b.WriteString(quoteName(n.Name))
}

func quoteName(name string) string {
	if !strings.ContainsAny(name, " \t\n:,();'[]") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// RenameLeaves replaces every leaf name for which rename reports true.
func RenameLeaves(root *Node, rename func(string) (string, bool)) {
	if root.IsLeaf() {
		if name, ok := rename(root.Name); ok {
			root.Name = name
		}
		return
	}
	for _, c := range root.Children {
		RenameLeaves(c, rename)
	}
}
