package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedSet_AddKeepsFirstPosition(t *testing.T) {
	s := NewOrderedSet[string]()

	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"), "re-adding must be a no-op")

	assert.Equal(t, []string{"a", "b"}, s.Items())
	assert.Equal(t, 2, s.Len())
}

func TestOrderedSet_Remove(t *testing.T) {
	s := NewOrderedSet[int]()
	s.Add(1)
	s.Add(2)
	s.Add(3)

	assert.True(t, s.Remove(2))
	assert.False(t, s.Remove(2))
	assert.Equal(t, []int{1, 3}, s.Items())

	// re-adding after removal goes to the back
	s.Add(2)
	assert.Equal(t, []int{1, 3, 2}, s.Items())
}

func TestOrderedSet_Drain(t *testing.T) {
	s := NewOrderedSet[string]()
	s.Add("x")
	s.Add("y")

	assert.Equal(t, []string{"x", "y"}, s.Drain())
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Add("x"), "drained items can be added again")
}

func TestOrderedSet_ItemsIsCopy(t *testing.T) {
	s := NewOrderedSet[int]()
	s.Add(1)

	items := s.Items()
	items[0] = 99

	assert.Equal(t, []int{1}, s.Items())
	assert.False(t, s.Add(1), "set index untouched")
}
