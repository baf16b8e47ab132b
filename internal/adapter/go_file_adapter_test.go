package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	tree, err := adapter.Parse(context.Background(), []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", tree.File.Name.Name)
}

func TestLocalGoFileAdapter_Parse_InvalidSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	_, err := adapter.Parse(context.Background(), []byte("package foo\n func"))
	require.Error(t, err)
}

func TestLocalGoFileAdapter_Parse_ContextCancellation(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Parse(ctx, []byte("package main\n func main() {}"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalGoFileAdapter_Summarize(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	tree, err := adapter.Parse(context.Background(), []byte(`package main

type t struct{}

func (t) main() {}

func helper() int { return 1 }

func main() { _ = helper() }
`))
	require.NoError(t, err)

	summary := adapter.Summarize(tree)
	assert.Equal(t, "main", summary.Package)
	assert.Equal(t, 3, summary.Funcs)
	assert.True(t, summary.HasMain)
	assert.Equal(t, tree.Len(), summary.Nodes)

	lib, err := adapter.Parse(context.Background(), []byte("package lib\n\nfunc F() {}\n"))
	require.NoError(t, err)
	assert.False(t, adapter.Summarize(lib).HasMain)
}
