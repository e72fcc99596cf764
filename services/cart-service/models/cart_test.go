package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartAddAndRemove(t *testing.T) {
	c := NewCart("u1")
	c.Add("p1", 2)
	c.Add("p2", 1)
	c.Add("p1", 3)

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Quantity("p1"))

	assert.True(t, c.Remove("p1"))
	assert.False(t, c.Remove("p1"))
	assert.Equal(t, []CartItem{{ProductID: "p2", Quantity: 1}}, c.Items)
	assert.Zero(t, c.Quantity("p1"))
}
