package adapter

import (
	"context"
	"go/ast"

	"sloth.dev/pkg/sloth/internal/syntax"
)

// FileSummary describes a parsed seed file.
type FileSummary struct {
	Package string
	Funcs   int
	HasMain bool
	Nodes   int
}

// GoFileAdapter encapsulates Go parsing so corpus loading can validate and
// describe seed files.
type GoFileAdapter interface {
	// Parse builds an indexed syntax tree from source bytes.
	Parse(ctx context.Context, src []byte) (*syntax.Tree, error)

	// Summarize reports the package name, function count and size of a tree.
	Summarize(tree *syntax.Tree) FileSummary
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds a tree for the provided source.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, src []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return syntax.Parse(string(src))
}

// Summarize inspects top-level declarations.
func (a *LocalGoFileAdapter) Summarize(tree *syntax.Tree) FileSummary {
	summary := FileSummary{
		Package: tree.File.Name.Name,
		Nodes:   tree.Len(),
	}

	for _, decl := range tree.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		summary.Funcs++

		if fn.Recv == nil && fn.Name.Name == "main" {
			summary.HasMain = true
		}
	}

	return summary
}
