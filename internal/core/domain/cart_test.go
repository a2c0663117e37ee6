package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	yarn   = Product{ID: "p1", Name: "Cotton Yarn 40s", UnitPrice: 50000, Category: "yarn"}
	fabric = Product{ID: "p2", Name: "Woven Fabric Roll", UnitPrice: 275000, Category: "fabric"}
)

func TestAddItem_SameProductTwiceYieldsOneLine(t *testing.T) {
	c := NewCart()

	c.AddItem(yarn)
	c.AddItem(yarn)

	require.Equal(t, 1, c.Len())
	items := c.Items()
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(100000), c.Total())
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	c := NewCart()

	c.AddItem(fabric)
	c.AddItem(yarn)
	c.AddItem(fabric)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].ProductID)
	assert.Equal(t, "p1", items[1].ProductID)
}

func TestTotal_AlwaysMatchesSumOverLines(t *testing.T) {
	c := NewCart()

	c.AddItem(yarn)
	c.AddItem(fabric)
	c.AddItem(yarn)
	require.NoError(t, c.SetQuantity("p2", 3))
	require.True(t, c.RemoveItem("p1"))
	c.AddItem(yarn)

	var want int64
	for _, li := range c.Items() {
		want += li.Product.UnitPrice * int64(li.Quantity)
	}
	assert.Equal(t, want, c.Total())
	assert.Equal(t, int64(3*275000+50000), c.Total())
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)

	require.NoError(t, c.SetQuantity("p1", 0))

	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Total())
}

func TestSetQuantity_NegativeBehavesLikeZero(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)

	require.NoError(t, c.SetQuantity("p1", -3))

	assert.True(t, c.IsEmpty())
}

func TestSetQuantity_ExactValue(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)

	require.NoError(t, c.SetQuantity("p1", 7))

	assert.Equal(t, 7, c.Items()[0].Quantity)
	assert.Equal(t, int64(350000), c.Total())
}

func TestSetQuantity_AbsentLineIsAnError(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)

	err := c.SetQuantity("nope", 2)

	assert.ErrorIs(t, err, ErrLineItemNotFound)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveItem_AbsentIsNoOp(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)

	assert.False(t, c.RemoveItem("nope"))
	assert.Equal(t, 1, c.Len())
}

func TestClear_EmptiesCartAndTotal(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)
	c.AddItem(fabric)

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Total())
}

func TestRestoreCart_DropsLinesBelowOne(t *testing.T) {
	c := RestoreCart([]LineItem{
		{ProductID: "p1", Product: yarn, Quantity: 2},
		{ProductID: "p2", Product: fabric, Quantity: 0},
	})

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "p1", c.Items()[0].ProductID)
}

func TestItems_ReturnsACopy(t *testing.T) {
	c := NewCart()
	c.AddItem(yarn)

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, c.Items()[0].Quantity)
}
