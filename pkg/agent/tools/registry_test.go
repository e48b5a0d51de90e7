package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return NewFunc(name, "echoes "+name, func(_ context.Context, input string) (string, error) {
		return name + ":" + input, nil
	})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r, err := NewRegistry(echoTool("read_page"), echoTool("click_element"))
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	tool, ok := r.Get("click_element")
	require.True(t, ok)

	out, err := tool.Execute(context.Background(), "#x")
	require.NoError(t, err)
	assert.Equal(t, "click_element:#x", out)

	_, ok = r.Get("Click_Element")
	assert.False(t, ok, "lookup is exact")
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r, err := NewRegistry(echoTool("search"))
	require.NoError(t, err)

	err = r.Register(echoTool("search"))
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 1, r.Len())

	_, err = NewRegistry(echoTool("a"), echoTool("a"))
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegistry_RejectsEmptyName(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Error(t, r.Register(echoTool("")))
	assert.Error(t, r.Register(nil))
}

func TestRegistry_OrderAndCatalog(t *testing.T) {
	r, err := NewRegistry(echoTool("search"), echoTool("read_page"))
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "search", list[0].Name())
	assert.Equal(t, []string{"read_page", "search"}, r.Names())
	assert.Equal(t, "- search: echoes search\n- read_page: echoes read_page", r.Catalog())
}

func TestRegistry_NilIsEmpty(t *testing.T) {
	var r *Registry
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.List())
	_, ok := r.Get("x")
	assert.False(t, ok)
}
