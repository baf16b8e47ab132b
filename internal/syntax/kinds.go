package syntax

import (
	"fmt"
	"go/ast"
	"go/token"
	"slices"
)

// Structural categories a node can be swapped within.
const (
	CategoryExpr       = "Expr"
	CategoryType       = "Type"
	CategoryStmt       = "Stmt"
	CategoryDecl       = "Decl"
	CategoryCaseClause = "CaseClause"
	CategoryCommClause = "CommClause"
	CategoryField      = "Field"
	CategoryFieldList  = "FieldList"
	CategoryImportSpec = "ImportSpec"
	CategoryValueSpec  = "ValueSpec"
	CategoryTypeSpec   = "TypeSpec"
)

// Kind names the concrete node type, e.g. "*ast.BlockStmt".
func Kind(n ast.Node) string {
	return fmt.Sprintf("%T", n)
}

// Supertypes returns the categories n belongs to. Roots, comments and other
// nodes only reachable through ast.Node return nil.
func Supertypes(n ast.Node) []string {
	switch n.(type) {
	case nil, *ast.File, *ast.Comment, *ast.CommentGroup, *ast.BadExpr, *ast.BadStmt, *ast.BadDecl:
		return nil
	case *ast.CaseClause:
		return []string{CategoryCaseClause}
	case *ast.CommClause:
		return []string{CategoryCommClause}
	case *ast.Field:
		return []string{CategoryField}
	case *ast.FieldList:
		return []string{CategoryFieldList}
	case *ast.ImportSpec:
		return []string{CategoryImportSpec}
	case *ast.ValueSpec:
		return []string{CategoryValueSpec}
	case *ast.TypeSpec:
		return []string{CategoryTypeSpec}
	case *ast.ArrayType, *ast.StructType, *ast.FuncType, *ast.InterfaceType, *ast.MapType, *ast.ChanType:
		return []string{CategoryType}
	case *ast.Ident, *ast.SelectorExpr, *ast.StarExpr, *ast.IndexExpr, *ast.IndexListExpr, *ast.ParenExpr:
		return []string{CategoryExpr, CategoryType}
	}

	var out []string

	if _, ok := n.(ast.Expr); ok {
		out = append(out, CategoryExpr)
	}

	if _, ok := n.(ast.Stmt); ok {
		out = append(out, CategoryStmt)
	}

	if _, ok := n.(ast.Decl); ok {
		out = append(out, CategoryDecl)
	}

	return out
}

// Swappable reports whether donor may replace target: both share a category.
func Swappable(donor, target ast.Node) bool {
	targetTypes := Supertypes(target)
	for _, st := range Supertypes(donor) {
		if slices.Contains(targetTypes, st) {
			return true
		}
	}

	return false
}

// SameKind reports whether a and b have the same concrete node type.
func SameKind(a, b ast.Node) bool {
	return Kind(a) == Kind(b)
}

// ListChildren returns the growable child list of n, and false when n has no
// list that Add can append to.
func ListChildren(n ast.Node) ([]ast.Node, bool) {
	switch v := n.(type) {
	case *ast.BlockStmt:
		return toNodes(v.List), true
	case *ast.CaseClause:
		return toNodes(v.Body), true
	case *ast.CommClause:
		return toNodes(v.Body), true
	case *ast.File:
		return toNodes(v.Decls), true
	case *ast.FieldList:
		return toNodes(v.List), true
	case *ast.CompositeLit:
		return toNodes(v.Elts), true
	case *ast.CallExpr:
		return toNodes(v.Args), true
	case *ast.GenDecl:
		if v.Tok == token.IMPORT {
			return nil, false
		}

		return toNodes(v.Specs), true
	default:
		return nil, false
	}
}

func toNodes[T ast.Node](list []T) []ast.Node {
	out := make([]ast.Node, len(list))
	for i, n := range list {
		out[i] = n
	}

	return out
}

// Boring reports nodes that make poor edit points: literal constants,
// comments and anything belonging to an import declaration.
func (t *Tree) Boring(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.BasicLit, *ast.ImportSpec, *ast.Comment, *ast.CommentGroup:
		return true
	case *ast.GenDecl:
		if v.Tok == token.IMPORT {
			return true
		}
	}

	for _, a := range t.Ancestors(n) {
		switch v := a.(type) {
		case *ast.ImportSpec, *ast.CommentGroup:
			return true
		case *ast.GenDecl:
			if v.Tok == token.IMPORT {
				return true
			}
		}
	}

	return false
}
