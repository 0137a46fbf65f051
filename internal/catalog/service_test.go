package catalog

import (
	"context"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
	"github.com/ariefcatur/go-shop-api/internal/auth"
)

type memStore struct {
	cats     map[int64]Category
	prods    map[int64]Product
	nextCat  int64
	nextProd int64
	// onGet runs after a product is read, standing in for a concurrent writer.
	onGet    func()
}

func newMemStore() *memStore {
	return &memStore{cats: map[int64]Category{}, prods: map[int64]Product{}}
}

func (m *memStore) CreateCategory(_ context.Context, c *Category) error {
	for _, x := range m.cats {
		if x.Name == c.Name {
			return ErrDuplicate
		}
	}
	m.nextCat++
	c.ID = m.nextCat
	m.cats[c.ID] = *c
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c *Category) error {
	if _, ok := m.cats[c.ID]; !ok {
		return ErrNotFound
	}
	for _, x := range m.cats {
		if x.ID != c.ID && x.Name == c.Name {
			return ErrDuplicate
		}
	}
	m.cats[c.ID] = *c
	return nil
}

func (m *memStore) GetCategory(_ context.Context, id int64) (*Category, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memStore) ListCategories(_ context.Context, limit, offset int) ([]Category, int, error) {
	all := []Category{}
	for _, c := range m.cats {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, limit, offset), len(all), nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := m.cats[id]; !ok {
		return ErrNotFound
	}
	for _, p := range m.prods {
		if p.CategoryID == id {
			return ErrInUse
		}
	}
	delete(m.cats, id)
	return nil
}

func window[T any](all []T, limit, offset int) []T {
	if limit <= 0 {
		return all
	}
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func (m *memStore) ListProducts(_ context.Context, q ProductQuery) ([]Product, int, error) {
	all := []Product{}
	for _, p := range m.prods {
		if q.CategoryID != 0 && p.CategoryID != q.CategoryID {
			continue
		}
		if q.CreatedBy != 0 && p.CreatedBy != q.CreatedBy {
			continue
		}
		if q.NameLike != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.NameLike)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return window(all, q.Limit, q.Offset), len(all), nil
}

func (m *memStore) GetProduct(_ context.Context, id int64) (*Product, error) {
	p, ok := m.prods[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.onGet != nil {
		m.onGet()
	}
	return &p, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *Product) error {
	m.nextProd++
	p.ID = m.nextProd
	p.finalize()
	m.prods[p.ID] = *p
	return nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *Product, stock *int) error {
	cur, ok := m.prods[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.Stock = cur.Stock
	if stock != nil {
		p.Stock = *stock
	}
	p.finalize()
	m.prods[p.ID] = *p
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id int64) error {
	delete(m.prods, id)
	return nil
}

var (
	admin  = auth.Principal{UserID: 1, Role: auth.RoleAdmin}
	admin2 = auth.Principal{UserID: 2, Role: auth.RoleAdmin}
	user   = auth.Principal{UserID: 3, Role: auth.RoleUser}
)

func seed(t *testing.T) (*Service, *Category) {
	t.Helper()
	svc := &Service{Store: newMemStore()}
	c, err := svc.CreateCategory(context.Background(), admin, CategoryInput{Name: "Manje"})
	require.NoError(t, err)
	return svc, c
}

func TestCategoryLifecycle(t *testing.T) {
	svc, c := seed(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, user, CategoryInput{Name: "Rad"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.CreateCategory(ctx, admin, CategoryInput{Name: "Manje"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.UpdateCategory(ctx, admin, 99, CategoryInput{Name: "X"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.CreateProduct(ctx, admin, ProductInput{Name: "Diri", Price: decimal.NewFromInt(3), Stock: 1, CategoryID: c.ID})
	require.NoError(t, err)

	got, err := svc.Category(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Products, 1)

	err = svc.DeleteCategory(ctx, admin, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	err = svc.DeleteCategory(ctx, admin, 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFinalPriceAppliesDiscount(t *testing.T) {
	svc, c := seed(t)

	p, err := svc.CreateProduct(context.Background(), admin, ProductInput{
		Name: "Kasav", Price: decimal.RequireFromString("200"), Stock: 4, CategoryID: c.ID,
		Discount: decimal.NewNullDecimal(decimal.NewFromInt(15)),
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("170").Equal(p.FinalPrice))
	assert.Equal(t, []string{}, p.Colors)
}

func TestCreateProductChecks(t *testing.T) {
	svc, c := seed(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, user, ProductInput{Name: "x", CategoryID: c.ID})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.CreateProduct(ctx, admin, ProductInput{Name: "Diri", CategoryID: 42})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.CreateProduct(ctx, admin, ProductInput{Name: "Diri", CategoryID: c.ID, Price: decimal.NewFromInt(-1)})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.CreateProduct(ctx, admin, ProductInput{
		Name: "Diri", CategoryID: c.ID, Discount: decimal.NewNullDecimal(decimal.NewFromInt(120)),
	})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestOnlyCreatorMayEditProduct(t *testing.T) {
	svc, c := seed(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Mamba", Price: decimal.NewFromInt(5), Stock: 2, CategoryID: c.ID})
	require.NoError(t, err)

	stock := 9
	_, err = svc.UpdateProduct(ctx, admin2, p.ID, ProductUpdate{Stock: &stock})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	err = svc.DeleteProduct(ctx, admin2, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := svc.UpdateProduct(ctx, admin, p.ID, ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)
	assert.Equal(t, "Mamba", got.Name)

	require.NoError(t, svc.DeleteProduct(ctx, admin, p.ID))
	_, err = svc.Product(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPaginationAndSearch(t *testing.T) {
	svc, c := seed(t)
	ctx := context.Background()
	for _, n := range []string{"Diri blan", "Diri jon", "Pwa", "Mayi"} {
		_, err := svc.CreateProduct(ctx, admin, ProductInput{Name: n, Price: decimal.NewFromInt(1), CategoryID: c.ID})
		require.NoError(t, err)
	}

	page, err := svc.ProductPage(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Len(t, page.Data, 1)

	_, err = svc.ProductPage(ctx, 0, 10)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	found, err := svc.Search(ctx, "DIRI")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = svc.Search(ctx, "bannann")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.ByCategory(ctx, 99, 1, 10)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	byCat, err := svc.ByCategory(ctx, c.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, byCat.Total)

	mine, err := svc.AdminProducts(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, mine, 4)
}

func TestUpdateProductKeepsConcurrentStockChanges(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}
	ctx := context.Background()
	c, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "Manje"})
	require.NoError(t, err)
	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Kasav", Price: decimal.NewFromInt(5), Stock: 5, CategoryID: c.ID})
	require.NoError(t, err)

	// an order takes 3 between the edit's read and its write
	store.onGet = func() {
		store.onGet = nil
		sold := store.prods[p.ID]
		sold.Stock -= 3
		store.prods[p.ID] = sold
	}
	name := "Kasav fre"
	got, err := svc.UpdateProduct(ctx, admin, p.ID, ProductUpdate{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 2, store.prods[p.ID].Stock)
	assert.Equal(t, "Kasav fre", store.prods[p.ID].Name)
}

func TestPriceMustFitInCents(t *testing.T) {
	svc, c := seed(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Sel", Price: decimal.RequireFromString("0.005"), CategoryID: c.ID})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Sel", Price: decimal.RequireFromString("0.50"), CategoryID: c.ID})
	require.NoError(t, err)
	bad := decimal.RequireFromString("1.999")
	_, err = svc.UpdateProduct(ctx, admin, p.ID, ProductUpdate{Price: &bad})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestPageBoundsRejectHugeValues(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()

	_, err := svc.ProductPage(ctx, math.MaxInt, 10)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = svc.ProductPage(ctx, 1, MaxLimit+1)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = svc.CategoryPage(ctx, MaxPage, MaxLimit)
	assert.NoError(t, err)
}
