package storage_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

func TestGuestSeqResetsPerDay(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	seq, err := store.NextGuestSeq(ctx, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	seq, err = store.NextGuestSeq(ctx, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	// A new day starts its own counter.
	seq, err = store.NextGuestSeq(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestDeleteProductKeepsOrderSnapshots(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	p := &models.Product{Name: "Latte", BasePrice: decimal.NewFromInt(1000)}
	require.NoError(t, store.CreateProduct(ctx, p, nil))

	order := &models.Order{
		Status: models.OrderStatusActive,
		Total:  decimal.NewFromInt(1000),
		Items: []*models.OrderItem{
			{ProductID: &p.ID, NameSnapshot: "Latte", UnitPrice: decimal.NewFromInt(1000), Qty: 1},
		},
	}
	require.NoError(t, store.CreateOrder(ctx, order))

	require.NoError(t, store.DeleteProduct(ctx, p.ID))

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	// The reference is gone but the snapshot keeps the receipt readable.
	assert.Nil(t, got.Items[0].ProductID)
	assert.Equal(t, "Latte", got.Items[0].NameSnapshot)
}

func TestDeleteOptionItemNullifiesOrderReferences(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	g := &models.OptionGroup{Name: "Syrup", SelectType: models.SelectMulti}
	require.NoError(t, store.CreateOptionGroup(ctx, g))
	it := &models.OptionItem{GroupID: g.ID, Name: "Caramel", Price: decimal.NewFromInt(150)}
	require.NoError(t, store.CreateOptionItem(ctx, it))

	order := &models.Order{
		Status: models.OrderStatusActive,
		Total:  decimal.NewFromInt(1150),
		Items: []*models.OrderItem{
			{
				NameSnapshot: "Latte",
				UnitPrice:    decimal.NewFromInt(1150),
				Qty:          1,
				Options: []*models.OrderItemOption{
					{OptionItemID: &it.ID, NameSnapshot: "Caramel", Price: decimal.NewFromInt(150)},
				},
			},
		},
	}
	require.NoError(t, store.CreateOrder(ctx, order))

	require.NoError(t, store.DeleteOptionItem(ctx, it.ID))

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items[0].Options, 1)
	assert.Nil(t, got.Items[0].Options[0].OptionItemID)
	assert.Equal(t, "Caramel", got.Items[0].Options[0].NameSnapshot)
}

func TestListOptionItemsSkipsUnknownIDs(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	g := &models.OptionGroup{Name: "Syrup", SelectType: models.SelectMulti}
	require.NoError(t, store.CreateOptionGroup(ctx, g))
	it := &models.OptionItem{GroupID: g.ID, Name: "Caramel", Price: decimal.NewFromInt(150)}
	require.NoError(t, store.CreateOptionItem(ctx, it))

	items, err := store.ListOptionItems(ctx, []int64{it.ID, 9999})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Caramel", items[0].Name)
}

func TestDeleteCategorySetsProductsNull(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	cat, err := store.GetOrCreateCategory(ctx, "Coffee")
	require.NoError(t, err)

	p := &models.Product{Name: "Latte", BasePrice: decimal.NewFromInt(1000), CategoryID: &cat.ID}
	require.NoError(t, store.CreateProduct(ctx, p, nil))

	require.NoError(t, store.DeleteCategory(ctx, cat.ID))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}
