package memory

import (
	"context"
	"testing"

	domcatalog "github.com/alxiri/fulfillment/internal/domain/catalog"
	domorder "github.com/alxiri/fulfillment/internal/domain/order"
	"github.com/alxiri/fulfillment/internal/domain/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProduct(t *testing.T, name string, total int, price int64) *domcatalog.Product {
	t.Helper()
	product, err := domcatalog.New(name, "", total, price)
	require.NoError(t, err)
	return product
}

func TestCatalogRepositoryRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()

	require.NoError(t, repo.Insert(ctx, mustProduct(t, "pijamas", 5000, 3)))
	err := repo.Insert(ctx, mustProduct(t, "pijamas", 1, 1))
	assert.ErrorIs(t, err, domcatalog.ErrDuplicateProduct)
}

func TestCatalogRepositoryListPreservesRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()

	for _, name := range []string{"polo_manga_larga", "pijamas", "sabanas"} {
		require.NoError(t, repo.Insert(ctx, mustProduct(t, name, 10, 1)))
	}

	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "polo_manga_larga", products[0].Name)
	assert.Equal(t, "pijamas", products[1].Name)
	assert.Equal(t, "sabanas", products[2].Name)
}

func TestCatalogRepositoryClonesOnRead(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository()
	require.NoError(t, repo.Insert(ctx, mustProduct(t, "pijamas", 5000, 3)))

	first, err := repo.Get(ctx, "pijamas")
	require.NoError(t, err)
	first.Total = 0

	second, err := repo.Get(ctx, "pijamas")
	require.NoError(t, err)
	assert.Equal(t, 5000, second.Total)
}

func TestCatalogRepositoryUpdateUnknown(t *testing.T) {
	err := NewCatalogRepository().Update(context.Background(), mustProduct(t, "ghost", 1, 1))
	assert.ErrorIs(t, err, domcatalog.ErrNotFound)
}

func TestOrderRepositoryAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	for want := int64(0); want < 3; want++ {
		entity, err := domorder.New("bob", "pijamas", "Lince", 30, 90)
		require.NoError(t, err)

		id, err := repo.Insert(ctx, entity)
		require.NoError(t, err)
		assert.Equal(t, want, id)
		assert.Equal(t, want, entity.ID)
	}
}

func TestOrderRepositoryGetUnknown(t *testing.T) {
	_, err := NewOrderRepository().Get(context.Background(), 9)
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestOrderRepositoryUpdatePersistsStage(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	entity, err := domorder.New("bob", "pijamas", "Lince", 30, 90)
	require.NoError(t, err)
	id, err := repo.Insert(ctx, entity)
	require.NoError(t, err)

	_, err = entity.Advance()
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, entity))

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domorder.StageCorte, stored.Stage)
	assert.Len(t, stored.History, 1)
}

func TestRoleStoreGrantAndHas(t *testing.T) {
	ctx := context.Background()
	store := NewRoleStore()

	ok, err := store.Has(ctx, rbac.RoleWorkflow, "carl")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Grant(ctx, rbac.RoleWorkflow, "carl"))

	ok, err = store.Has(ctx, rbac.RoleWorkflow, "carl")
	require.NoError(t, err)
	assert.True(t, ok)

	// Roles are scoped: the grant does not leak across roles.
	ok, err = store.Has(ctx, rbac.RoleCourier, "carl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleStoreRejectsEmptyIdentity(t *testing.T) {
	assert.Error(t, NewRoleStore().Grant(context.Background(), rbac.RoleWorkflow, ""))
}
