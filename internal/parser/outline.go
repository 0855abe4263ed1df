package parser

import (
	"strings"

	"github.com/dgallion1/ragdesk/internal/doctree"
)

// outline turns a flat stream of headings and paragraphs into nested
// DocNodes. Text seen before the first heading is kept as a leading node.
type outline struct {
	root  *doctree.DocNode
	stack []outlineLevel
	para  strings.Builder
}

type outlineLevel struct {
	node  *doctree.DocNode
	level int
}

func newOutline() *outline {
	root := &doctree.DocNode{}
	return &outline{root: root, stack: []outlineLevel{{node: root}}}
}

func (o *outline) heading(level int, title string) {
	o.flush()
	n := &doctree.DocNode{Title: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, n)
	o.stack = append(o.stack, outlineLevel{node: n, level: level})
}

func (o *outline) paragraph(text string) {
	if text == "" {
		return
	}
	if o.para.Len() > 0 {
		o.para.WriteString("\n\n")
	}
	o.para.WriteString(text)
}

func (o *outline) flush() {
	t := strings.TrimSpace(o.para.String())
	o.para.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

func (o *outline) finish(tree *doctree.DocTree) {
	o.flush()
	tree.Children = o.root.Children
	if o.root.Text != "" {
		tree.Children = append([]*doctree.DocNode{{Text: o.root.Text}}, tree.Children...)
	}
}
