package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/media"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/services"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

type catalogFixture struct {
	store   *storage.InMemoryStore
	hub     *hub.Hub
	catalog *services.CatalogService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	log := logger.NewLogger()
	store := storage.NewInMemoryStore()
	h := hub.New(log)
	m, err := media.NewStore(config.MediaConfig{Dir: t.TempDir(), PublicURL: "/media"}, log)
	require.NoError(t, err)
	return &catalogFixture{
		store:   store,
		hub:     h,
		catalog: services.NewCatalogService(store, h, m, log),
	}
}

func TestCreateProductAutoCreatesCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	out, err := f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name:         "Latte",
		BasePrice:    decimal.NewFromInt(1000),
		CategoryName: "Coffee",
	})
	require.NoError(t, err)
	require.NotNil(t, out.CategoryName)
	assert.Equal(t, "Coffee", *out.CategoryName)

	cats, err := f.catalog.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	// A second product reuses the category instead of duplicating it.
	_, err = f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name:         "Cappuccino",
		BasePrice:    decimal.NewFromInt(1100),
		CategoryName: "Coffee",
	})
	require.NoError(t, err)

	cats, err = f.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestProductsGroupedByCategory(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name: "Latte", BasePrice: decimal.NewFromInt(1000), CategoryName: "Coffee",
	})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name: "Cheesecake", BasePrice: decimal.NewFromInt(1800), CategoryName: "Desserts",
	})
	require.NoError(t, err)

	byCat, err := f.catalog.ProductsByCategory(ctx)
	require.NoError(t, err)

	require.Len(t, byCat, 2)
	require.Len(t, byCat["Coffee"], 1)
	assert.Equal(t, "Latte", byCat["Coffee"][0].Name)
	require.Len(t, byCat["Desserts"], 1)
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	out, err := f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name: "Latte", BasePrice: decimal.NewFromInt(1000), CategoryName: "Coffee",
	})
	require.NoError(t, err)

	cats, err := f.catalog.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	require.NoError(t, f.catalog.DeleteCategory(ctx, cats[0].ID))

	// The product survives, now uncategorized.
	got, err := f.catalog.GetProduct(ctx, out.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryName)

	byCat, err := f.catalog.ProductsByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, byCat["Uncategorized"], 1)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	f := newCatalogFixture(t)
	err := f.catalog.DeleteCategory(context.Background(), 404)
	assert.ErrorIs(t, err, services.ErrCategoryNotFound)
}

func TestCreateGroupRejectsDuplicateName(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateGroup(ctx, "Syrup", models.SelectMulti, false)
	require.NoError(t, err)

	_, err = f.catalog.CreateGroup(ctx, "Syrup", models.SelectSingle, true)
	assert.ErrorIs(t, err, services.ErrGroupExists)
}

func TestDeleteGroupCascadesToItems(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	group, err := f.catalog.CreateGroup(ctx, "Syrup", models.SelectMulti, false)
	require.NoError(t, err)

	item, err := f.catalog.AddItem(ctx, group.ID, &services.OptionItemIn{
		Name: "Caramel", Price: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteGroup(ctx, group.ID))

	groups, err := f.catalog.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	err = f.catalog.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, services.ErrItemNotFound)
}

func TestGroupAssociationsOnProduct(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	group, err := f.catalog.CreateGroup(ctx, "Milk", models.SelectSingle, true)
	require.NoError(t, err)

	out, err := f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name:           "Latte",
		BasePrice:      decimal.NewFromInt(1000),
		CategoryName:   "Coffee",
		OptionGroupIDs: []int64{group.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{group.ID}, out.OptionGroupIDs)

	// Clearing the associations on update.
	updated, err := f.catalog.UpdateProduct(ctx, out.ID, &services.ProductIn{
		Name:           "Latte",
		BasePrice:      decimal.NewFromInt(1000),
		CategoryName:   "Coffee",
		OptionGroupIDs: []int64{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.OptionGroupIDs)
}

func TestUpdateItem(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	group, err := f.catalog.CreateGroup(ctx, "Syrup", models.SelectMulti, false)
	require.NoError(t, err)
	item, err := f.catalog.AddItem(ctx, group.ID, &services.OptionItemIn{
		Name: "Caramel", Price: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	updated, err := f.catalog.UpdateItem(ctx, item.ID, &services.OptionItemIn{
		Name: "Vanilla", Price: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.Equal(t, "Vanilla", updated.Name)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(200)))
}

func TestCatalogMutationsBroadcastSnapshots(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	productsConn := &fakeConn{}
	optionsConn := &fakeConn{}
	f.hub.Join("products", productsConn)
	f.hub.Join("options", optionsConn)

	_, err := f.catalog.CreateProduct(ctx, &services.ProductIn{
		Name: "Latte", BasePrice: decimal.NewFromInt(1000), CategoryName: "Coffee",
	})
	require.NoError(t, err)
	require.Equal(t, 1, productsConn.count())
	assert.Equal(t, 0, optionsConn.count())

	var payload models.ProductsPayload
	require.NoError(t, json.Unmarshal(productsConn.messages[0], &payload))
	assert.Equal(t, "products", payload.Type)
	require.Len(t, payload.ByCategory["Coffee"], 1)

	_, err = f.catalog.CreateGroup(ctx, "Syrup", models.SelectMulti, false)
	require.NoError(t, err)
	assert.Equal(t, 1, productsConn.count())
	require.Equal(t, 1, optionsConn.count())

	var opts models.OptionsPayload
	require.NoError(t, json.Unmarshal(optionsConn.messages[0], &opts))
	assert.Equal(t, "options", opts.Type)
	require.Len(t, opts.Groups, 1)
	assert.Equal(t, "Syrup", opts.Groups[0].Name)
}
