package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolNeverReissuesID(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero())
	require.True(t, p.Alive(a))

	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "slot is recycled")
	assert.NotEqual(t, a, b, "id is not")
	assert.False(t, p.Alive(a))
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(None))
}

func TestPoolDoubleDestroy(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	p.Destroy(a)
	assert.Equal(t, 0, p.Len())
	b, c := p.Create(), p.Create()
	assert.NotEqual(t, b.Index(), c.Index())
	assert.Equal(t, 2, p.Len())
}

func TestStoreKeepsInsertionOrder(t *testing.T) {
	s := NewStore[int]()
	for i := 1; i <= 5; i++ {
		v := i * 10
		s.Set(EntityID(i), &v)
	}
	s.Remove(EntityID(2))
	s.Remove(EntityID(9))

	var seen []int
	s.Each(func(_ EntityID, v *int) { seen = append(seen, *v) })
	assert.Equal(t, []int{10, 30, 40, 50}, seen)
	assert.Equal(t, []EntityID{1, 3, 4, 5}, s.IDs())

	v, ok := s.Get(EntityID(4))
	require.True(t, ok)
	assert.Equal(t, 40, *v)

	replaced := 99
	s.Set(EntityID(3), &replaced)
	assert.Equal(t, []EntityID{1, 3, 4, 5}, s.IDs())
}

func TestWorldDestroyRemovesFromAllStores(t *testing.T) {
	w := NewWorld()
	names := NewComponent[string](w)
	hp := NewComponent[int](w)

	id := w.CreateEntity()
	n, h := "guard", 100
	names.Set(id, &n)
	hp.Set(id, &h)

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, w.Pending(id))
	assert.True(t, names.Has(id), "removal is deferred")

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.False(t, names.Has(id))
	assert.False(t, hp.Has(id))
	assert.False(t, w.Alive(id))
	assert.False(t, w.Pending(id))
}

func TestEach2(t *testing.T) {
	w := NewWorld()
	a := NewComponent[int](w)
	b := NewComponent[string](w)
	ids := []EntityID{w.CreateEntity(), w.CreateEntity(), w.CreateEntity()}
	for i, id := range ids {
		v := i
		a.Set(id, &v)
	}
	s := "x"
	b.Set(ids[2], &s)
	b.Set(ids[0], &s)

	var got []EntityID
	Each2(a, b, func(id EntityID, _ *int, _ *string) { got = append(got, id) })
	assert.Equal(t, []EntityID{ids[0], ids[2]}, got)
}
