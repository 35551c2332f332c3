package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func validInput() ProductInput {
	return ProductInput{
		Name:        strptr("Desk lamp"),
		Price:       strptr("19.5"),
		CityName:    strptr("Lyon"),
		Description: strptr("Warm light"),
		Status:      strptr(models.StatusForSale),
		Category:    strptr("Home & Garden"),
	}
}

func TestProductService_Create_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", true)

	tests := []struct {
		name   string
		mutate func(in *ProductInput)
		msg    string
	}{
		{name: "no name", mutate: func(in *ProductInput) { in.Name = nil }, msg: "Missing product name."},
		{name: "no price", mutate: func(in *ProductInput) { in.Price = strptr(" ") }, msg: "Missing price."},
		{name: "bad price", mutate: func(in *ProductInput) { in.Price = strptr("cheap") }, msg: "Price must be a valid float number."},
		{name: "no description", mutate: func(in *ProductInput) { in.Description = nil }, msg: "Missing description."},
		{name: "markup only description", mutate: func(in *ProductInput) { in.Description = strptr("<b></b>") }, msg: "Missing description."},
		{name: "no status", mutate: func(in *ProductInput) { in.Status = nil }, msg: "Missing status."},
		{name: "bad status", mutate: func(in *ProductInput) { in.Status = strptr("gone") }, msg: "Invalid value for status."},
		{name: "no category", mutate: func(in *ProductInput) { in.Category = nil }, msg: "Missing category."},
		{name: "bad category", mutate: func(in *ProductInput) { in.Category = strptr("Food") }, msg: "Invalid value for category."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := env.products.Create(ctx, "alice", in, nil)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.msg, Message(err))
		})
	}
}

func TestProductService_CreateAndGet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", true)

	p, err := env.products.Create(ctx, "alice", validInput(), []Upload{
		upload("front.PNG", "a"),
		upload("notes.txt", "b"),
		upload("../../back.jpg", "c"),
	})
	require.NoError(t, err)
	assert.Equal(t, 19.5, p.Price)
	assert.Equal(t, "alice", p.Owner)
	require.Len(t, p.Pictures, 2)
	assert.Len(t, env.files.keys(), 2)
	assert.True(t, env.index.has(p.ID))

	got, err := env.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", got.Name)
	assert.Len(t, got.Pictures, 2)

	_, err = env.products.Get(ctx, p.ID+100)
	assert.ErrorIs(t, err, ErrProductNotFound)

	env.tasks.Wait()
	assert.Equal(t, []string{EventProductCreated}, env.events.types())
}

func TestProductService_Search(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", true)

	lamp, err := env.products.Create(ctx, "alice", validInput(), nil)
	require.NoError(t, err)
	bikeIn := validInput()
	bikeIn.Name, bikeIn.Price, bikeIn.Category, bikeIn.Description = strptr("Bike"), strptr("250"), strptr("Sports & Outdoors"), strptr("Fast and red")
	bike, err := env.products.Create(ctx, "alice", bikeIn, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		q    SearchQuery
		want []uint
		msg  string
	}{
		{name: "all", q: SearchQuery{}, want: []uint{lamp.ID, bike.ID}},
		{name: "by name", q: SearchQuery{Name: "LAMP"}, want: []uint{lamp.ID}},
		{name: "full text", q: SearchQuery{Q: "red"}, want: []uint{bike.ID}},
		{name: "price range", q: SearchQuery{MinPrice: "100", MaxPrice: "300"}, want: []uint{bike.ID}},
		{name: "price sort", q: SearchQuery{SortPrice: "dsc"}, want: []uint{bike.ID, lamp.ID}},
		{name: "category", q: SearchQuery{Category: "Home & Garden"}, want: []uint{lamp.ID}},
		{name: "bad status", q: SearchQuery{Status: "gone"}, msg: "Invalid value for filter status."},
		{name: "bad category", q: SearchQuery{Category: "Food"}, msg: "Invalid value for category."},
		{name: "one bound", q: SearchQuery{MinPrice: "1"}, msg: "Min price and max price must both be provided."},
		{name: "float min", q: SearchQuery{MinPrice: "1.5", MaxPrice: "3"}, msg: "Min price must be an integer."},
		{name: "float max", q: SearchQuery{MinPrice: "1", MaxPrice: "x"}, msg: "Max price must be an integer."},
		{name: "bad sort", q: SearchQuery{SortCreatedAt: "up"}, msg: "Invalid value for sort_created_at."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.products.Search(ctx, tt.q)
			if tt.msg != "" {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Equal(t, tt.msg, Message(err))
				return
			}
			require.NoError(t, err)
			ids := make([]uint, 0, len(page.Items))
			for _, p := range page.Items {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.EqualValues(t, len(tt.want), page.Meta.Total)
		})
	}

	env.products.Index = nil
	page, err := env.products.Search(ctx, SearchQuery{Q: "bike"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, bike.ID, page.Items[0].ID)
}

func TestProductService_EditDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", true)
	env.seedUser(t, "bob", "pw", true)

	p, err := env.products.Create(ctx, "alice", validInput(), []Upload{upload("a.png", "a")})
	require.NoError(t, err)

	_, err = env.products.Edit(ctx, "bob", p.ID, ProductInput{Price: strptr("1")}, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "You cannot edit this product.", Message(err))

	_, err = env.products.Edit(ctx, "alice", p.ID, ProductInput{Status: strptr("gone")}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	edited, err := env.products.Edit(ctx, "alice", p.ID, ProductInput{Price: strptr("5"), Status: strptr(models.StatusSold)}, []Upload{upload("b.gif", "b")})
	require.NoError(t, err)
	assert.Equal(t, 5.0, edited.Price)
	assert.Equal(t, models.StatusSold, edited.Status)
	assert.Equal(t, "Desk lamp", edited.Name)
	assert.Len(t, edited.Pictures, 2)

	err = env.products.Delete(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "You cannot delete this product.", Message(err))

	require.NoError(t, env.products.Delete(ctx, "alice", p.ID))
	assert.Empty(t, env.files.keys())
	assert.False(t, env.index.has(p.ID))
	assert.ErrorIs(t, env.products.Delete(ctx, "alice", p.ID), ErrNotFound)
}

func TestProductService_ReportAndBan(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", true)
	p, err := env.products.Create(ctx, "alice", validInput(), nil)
	require.NoError(t, err)

	_, err = env.products.Report(ctx, "bob", p.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.products.Report(ctx, "bob", p.ID+1, "fake")
	assert.ErrorIs(t, err, ErrNotFound)

	rep, err := env.products.Report(ctx, "bob", p.ID, "fake")
	require.NoError(t, err)
	assert.Equal(t, p.ID, rep.ReportedProduct)

	reports, err := env.products.ProductReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	require.NoError(t, env.products.Ban(ctx, p.ID))
	assert.False(t, env.index.has(p.ID))
	_, err = env.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	page, err := env.products.Search(ctx, SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	own, err := env.products.SaleList(ctx, "alice", 1, 10)
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.True(t, own.Items[0].IsBanned)

	assert.ErrorIs(t, env.products.Ban(ctx, 999), ErrNotFound)
}

func TestProductService_OwnerKeepsBannedListing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "pw", true)
	env.seedUser(t, "bob", "pw", true)
	p, err := env.products.Create(ctx, "alice", validInput(), []Upload{upload("a.png", "a")})
	require.NoError(t, err)
	require.NoError(t, env.products.Ban(ctx, p.ID))

	err = env.products.Delete(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	edited, err := env.products.Edit(ctx, "alice", p.ID, ProductInput{Price: strptr("3")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, edited.Price)
	assert.True(t, edited.IsBanned)
	assert.False(t, env.index.has(p.ID))

	require.NoError(t, env.products.Delete(ctx, "alice", p.ID))
	assert.Empty(t, env.files.keys())
	_, err = env.repo.GetProduct(ctx, p.ID)
	assert.Error(t, err)
}
