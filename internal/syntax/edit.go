package syntax

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
)

// ErrIncompatible is returned when a donor node cannot be appended to the target.
var ErrIncompatible = errors.New("donor is incompatible with edit point")

// Splice replaces the text covered by n with replacement. It returns the new
// source and the byte range the replacement occupies in it.
func (t *Tree) Splice(n ast.Node, replacement string) (string, int, int, error) {
	start, end, err := t.Range(n)
	if err != nil {
		return "", 0, 0, err
	}

	var b bytes.Buffer

	b.Grow(len(t.text) - (end - start) + len(replacement))
	b.WriteString(t.text[:start])
	b.WriteString(replacement)
	b.WriteString(t.text[end:])

	return b.String(), start, start + len(replacement), nil
}

// AppendChildren appends clones of donor's list children to point and returns
// the printed result. point must belong to t and donor to donorTree.
func (t *Tree) AppendChildren(point ast.Node, donorTree *Tree, donor ast.Node) (string, error) {
	dec := decorator.NewDecorator(t.Fset)

	file, err := dec.DecorateFile(t.File)
	if err != nil {
		return "", fmt.Errorf("failed to decorate target: %w", err)
	}

	target, ok := dec.Dst.Nodes[point]
	if !ok {
		return "", fmt.Errorf("edit point %s not found in decorated tree", Kind(point))
	}

	donorDec := decorator.NewDecorator(donorTree.Fset)
	if _, err := donorDec.DecorateFile(donorTree.File); err != nil {
		return "", fmt.Errorf("failed to decorate donor: %w", err)
	}

	source, ok := donorDec.Dst.Nodes[donor]
	if !ok {
		return "", fmt.Errorf("donor %s not found in decorated tree", Kind(donor))
	}

	if err := appendList(target, source); err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := decorator.Fprint(&out, file); err != nil {
		return "", fmt.Errorf("failed to print edited tree: %w", err)
	}

	return out.String(), nil
}

func appendList(target, donor dst.Node) error {
	switch t := target.(type) {
	case *dst.BlockStmt:
		d, ok := donor.(*dst.BlockStmt)
		if !ok {
			return ErrIncompatible
		}

		t.List = appendStmts(t.List, d.List)
	case *dst.CaseClause:
		d, ok := donor.(*dst.CaseClause)
		if !ok {
			return ErrIncompatible
		}

		t.Body = appendStmts(t.Body, d.Body)
	case *dst.CommClause:
		d, ok := donor.(*dst.CommClause)
		if !ok {
			return ErrIncompatible
		}

		t.Body = appendStmts(t.Body, d.Body)
	case *dst.File:
		d, ok := donor.(*dst.File)
		if !ok {
			return ErrIncompatible
		}

		for _, decl := range d.Decls {
			if g, isGen := decl.(*dst.GenDecl); isGen && g.Tok == token.IMPORT {
				continue
			}

			c := dst.Clone(decl).(dst.Decl)
			c.Decorations().Before = dst.EmptyLine
			t.Decls = append(t.Decls, c)
		}
	case *dst.FieldList:
		d, ok := donor.(*dst.FieldList)
		if !ok {
			return ErrIncompatible
		}

		for _, f := range d.List {
			t.List = append(t.List, dst.Clone(f).(*dst.Field))
		}

		t.Opening = true
		t.Closing = true
	case *dst.CompositeLit:
		d, ok := donor.(*dst.CompositeLit)
		if !ok {
			return ErrIncompatible
		}

		t.Elts = appendExprs(t.Elts, d.Elts)
	case *dst.CallExpr:
		d, ok := donor.(*dst.CallExpr)
		if !ok {
			return ErrIncompatible
		}

		t.Args = appendExprs(t.Args, d.Args)
	case *dst.GenDecl:
		d, ok := donor.(*dst.GenDecl)
		if !ok || d.Tok != t.Tok || t.Tok == token.IMPORT {
			return ErrIncompatible
		}

		for _, s := range d.Specs {
			t.Specs = append(t.Specs, dst.Clone(s).(dst.Spec))
		}

		t.Lparen = true
		t.Rparen = true
	default:
		return fmt.Errorf("%w: %T has no child list", ErrIncompatible, target)
	}

	return nil
}

func appendStmts(dstList, src []dst.Stmt) []dst.Stmt {
	for _, s := range src {
		c := dst.Clone(s).(dst.Stmt)
		c.Decorations().Before = dst.NewLine
		dstList = append(dstList, c)
	}

	return dstList
}

func appendExprs(dstList, src []dst.Expr) []dst.Expr {
	for _, e := range src {
		dstList = append(dstList, dst.Clone(e).(dst.Expr))
	}

	return dstList
}
