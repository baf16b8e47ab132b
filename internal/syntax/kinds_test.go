package syntax

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupertypes(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want []string
	}{
		{"file is a root", &ast.File{}, nil},
		{"comment", &ast.Comment{}, nil},
		{"binary expression", &ast.BinaryExpr{}, []string{CategoryExpr}},
		{"identifier", &ast.Ident{}, []string{CategoryExpr, CategoryType}},
		{"map type", &ast.MapType{}, []string{CategoryType}},
		{"assignment", &ast.AssignStmt{}, []string{CategoryStmt}},
		{"case clause", &ast.CaseClause{}, []string{CategoryCaseClause}},
		{"function declaration", &ast.FuncDecl{}, []string{CategoryDecl}},
		{"value spec", &ast.ValueSpec{}, []string{CategoryValueSpec}},
		{"field", &ast.Field{}, []string{CategoryField}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Supertypes(tt.node))
		})
	}
}

func TestSwappable(t *testing.T) {
	tests := []struct {
		name   string
		donor  ast.Node
		target ast.Node
		want   bool
	}{
		{"expr for expr", &ast.CallExpr{}, &ast.BinaryExpr{}, true},
		{"type for ident", &ast.ArrayType{}, &ast.Ident{}, true},
		{"stmt for expr", &ast.AssignStmt{}, &ast.BinaryExpr{}, false},
		{"case clause for stmt", &ast.CaseClause{}, &ast.IfStmt{}, false},
		{"file is never swappable", &ast.File{}, &ast.File{}, false},
		{"decl for decl", &ast.GenDecl{}, &ast.FuncDecl{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Swappable(tt.donor, tt.target))
		})
	}
}

func TestListChildren(t *testing.T) {
	tree, err := Parse(sampleSource)
	require.NoError(t, err)

	block := findNode[*ast.BlockStmt](t, tree)
	children, ok := ListChildren(block)
	require.True(t, ok)
	assert.Len(t, children, 2)

	call := findNode[*ast.CallExpr](t, tree)
	args, ok := ListChildren(call)
	require.True(t, ok)
	assert.Len(t, args, 1)

	importDecl := findNode[*ast.GenDecl](t, tree)
	_, ok = ListChildren(importDecl)
	assert.False(t, ok)

	_, ok = ListChildren(&ast.Ident{})
	assert.False(t, ok)
}

func TestTree_Boring(t *testing.T) {
	tree, err := Parse(sampleSource)
	require.NoError(t, err)

	assert.True(t, tree.Boring(findNode[*ast.BasicLit](t, tree)))
	assert.True(t, tree.Boring(findNode[*ast.ImportSpec](t, tree)))
	assert.True(t, tree.Boring(findNode[*ast.GenDecl](t, tree)))
	assert.False(t, tree.Boring(findNode[*ast.BinaryExpr](t, tree)))
	assert.False(t, tree.Boring(findNode[*ast.FuncDecl](t, tree)))
}

func TestSameKind(t *testing.T) {
	assert.True(t, SameKind(&ast.BlockStmt{}, &ast.BlockStmt{}))
	assert.False(t, SameKind(&ast.BlockStmt{}, &ast.CallExpr{}))
	assert.Equal(t, "*ast.BlockStmt", Kind(&ast.BlockStmt{}))
}
