// Package syntax parses Go source into an indexed tree and provides the edit
// primitives used by mutations.
package syntax

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// Filename is the synthetic file name used for every parsed sample.
const Filename = "main.go"

// ErrNoPosition is returned for nodes that carry no source range.
var ErrNoPosition = errors.New("node has no source position")

// Tree indexes a parsed file: preorder node list, parent/children links and
// subtree sizes. A Tree is read-only once built.
type Tree struct {
	Fset *token.FileSet
	File *ast.File

	text     string
	base     int
	nodes    []ast.Node
	index    map[ast.Node]int
	parent   map[ast.Node]ast.Node
	children map[ast.Node][]ast.Node
	size     map[ast.Node]int
}

// Parse parses text as a single Go file.
func Parse(text string) (*Tree, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, Filename, text, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("could not parse code: %w", err)
	}

	return newTree(fset, file, text), nil
}

func newTree(fset *token.FileSet, file *ast.File, text string) *Tree {
	t := &Tree{
		Fset:     fset,
		File:     file,
		text:     text,
		base:     fset.File(file.Pos()).Base(),
		index:    make(map[ast.Node]int),
		parent:   make(map[ast.Node]ast.Node),
		children: make(map[ast.Node][]ast.Node),
		size:     make(map[ast.Node]int),
	}

	var stack []ast.Node

	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}

		if len(stack) > 0 {
			p := stack[len(stack)-1]
			t.parent[n] = p
			t.children[p] = append(t.children[p], n)
		}

		t.index[n] = len(t.nodes)
		t.nodes = append(t.nodes, n)
		stack = append(stack, n)

		return true
	})

	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		size := 1

		for _, c := range t.children[n] {
			size += t.size[c]
		}

		t.size[n] = size
	}

	return t
}

// Text returns the full source the tree was parsed from.
func (t *Tree) Text() string { return t.text }

// Root returns the file node.
func (t *Tree) Root() ast.Node { return t.File }

// Nodes returns every node in preorder. The slice must not be modified.
func (t *Tree) Nodes() []ast.Node { return t.nodes }

// Len is the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Children returns the direct children of n in source order.
func (t *Tree) Children(n ast.Node) []ast.Node { return t.children[n] }

// Parent returns the parent of n, or nil for the root and foreign nodes.
func (t *Tree) Parent(n ast.Node) ast.Node { return t.parent[n] }

// Contains reports whether n belongs to this tree.
func (t *Tree) Contains(n ast.Node) bool {
	_, ok := t.index[n]
	return ok
}

// SubtreeSize counts n and all of its descendants.
func (t *Tree) SubtreeSize(n ast.Node) int { return t.size[n] }

// Range returns the byte offsets [start, end) of n in Text().
func (t *Tree) Range(n ast.Node) (int, int, error) {
	if n == nil || !n.Pos().IsValid() || !n.End().IsValid() {
		return 0, 0, ErrNoPosition
	}

	start := int(n.Pos()) - t.base
	end := int(n.End()) - t.base

	if start < 0 || end > len(t.text) || start > end {
		return 0, 0, fmt.Errorf("node range [%d, %d) outside source of length %d", start, end, len(t.text))
	}

	return start, end, nil
}

// NodeText returns the source text covered by n.
func (t *Tree) NodeText(n ast.Node) (string, error) {
	start, end, err := t.Range(n)
	if err != nil {
		return "", err
	}

	return t.text[start:end], nil
}

// Pos converts a byte offset in Text() into a token.Pos of this tree.
func (t *Tree) Pos(offset int) token.Pos {
	return token.Pos(t.base + offset)
}

// Ancestors returns the parents of n, nearest first.
func (t *Tree) Ancestors(n ast.Node) []ast.Node {
	var out []ast.Node
	for p := t.parent[n]; p != nil; p = t.parent[p] {
		out = append(out, p)
	}

	return out
}
