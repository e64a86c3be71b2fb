package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylabs/clubtrack/internal/model"
)

type stubSource struct {
	name string
}

func (s *stubSource) Name() string          { return s.name }
func (s *stubSource) Categories() []string  { return []string{"drivers"} }
func (s *stubSource) ListCategory(context.Context, Query) ([]model.RawListing, error) {
	return nil, nil
}
func (s *stubSource) FetchDetail(context.Context, string) (*model.RawListing, error) {
	return nil, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSource{name: "globalgolf"})

	s, err := r.Get("globalgolf")
	require.NoError(t, err)
	assert.Equal(t, "globalgolf", s.Name())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "nope"`)
}

func TestRegistry_OrderPreserved(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSource{name: "bravo"})
	r.Register(&stubSource{name: "alpha"})
	r.Register(&stubSource{name: "charlie"})

	assert.Equal(t, []string{"bravo", "alpha", "charlie"}, r.Names())

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "bravo", all[0].Name())
	assert.Equal(t, "charlie", all[2].Name())
}

func TestRegistry_ReRegisterKeepsPosition(t *testing.T) {
	r := NewRegistry()
	first := &stubSource{name: "globalgolf"}
	second := &stubSource{name: "globalgolf"}
	r.Register(first)
	r.Register(&stubSource{name: "other"})
	r.Register(second)

	assert.Equal(t, []string{"globalgolf", "other"}, r.Names())
	got, err := r.Get("globalgolf")
	require.NoError(t, err)
	assert.Same(t, second, got)
}
