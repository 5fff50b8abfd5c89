package sitemap

import (
	"fmt"
	"io"
	"strings"

	"github.com/amosWeiskopf/site2md/pkg/utils"
)

// DefaultDisplayDepth is the deepest level Render descends into by default.
const DefaultDisplayDepth = 5

// Node is one path segment (or a host name, directly under the root).
type Node struct {
	Label    string
	children map[string]*Node
	order    []string
}

func newNode(label string) *Node {
	return &Node{Label: label, children: make(map[string]*Node)}
}

// child returns the child labelled label, creating it on first use.
func (n *Node) child(label string) *Node {
	if c, ok := n.children[label]; ok {
		return c
	}
	c := newNode(label)
	n.children[label] = c
	n.order = append(n.order, label)
	return c
}

// Children returns the children in first-seen order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, label := range n.order {
		out = append(out, n.children[label])
	}
	return out
}

// Child looks up a direct child by label.
func (n *Node) Child(label string) (*Node, bool) {
	c, ok := n.children[label]
	return c, ok
}

// Tree is the host/path hierarchy of a set of URLs.
type Tree struct {
	Root *Node
}

// BuildTree groups urls by host and path segment. Unparseable URLs are skipped.
func BuildTree(urls []string) *Tree {
	root := newNode("")
	for _, raw := range urls {
		host, segments, err := utils.HostAndSegments(raw)
		if err != nil {
			continue
		}
		current := root.child(host)
		for _, segment := range segments {
			current = current.child(segment)
		}
	}
	return &Tree{Root: root}
}

// Hosts returns the host nodes in first-seen order.
func (t *Tree) Hosts() []*Node {
	return t.Root.Children()
}

// Render writes the tree depth-first, two spaces of indentation per level.
// Hosts are level 0; nodes at maxDepth are printed without their children.
func (t *Tree) Render(w io.Writer, maxDepth int) error {
	for _, host := range t.Root.Children() {
		if err := render(w, host, 0, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

// String renders the tree with DefaultDisplayDepth.
func (t *Tree) String() string {
	var b strings.Builder
	_ = t.Render(&b, DefaultDisplayDepth)
	return b.String()
}

func render(w io.Writer, n *Node, level, maxDepth int) error {
	if _, err := fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", level), n.Label); err != nil {
		return err
	}
	if level >= maxDepth {
		return nil
	}
	for _, c := range n.Children() {
		if err := render(w, c, level+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
