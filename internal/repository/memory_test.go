package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/complaint-tracker/internal/model"
)

func TestMemoryUserRepoUniqueEmailUnderConcurrency(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dupes   atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &model.User{Name: "A", Email: "same@example.com", Role: model.RoleCitizen})
			switch err {
			case nil:
				created.Add(1)
			case ErrEmailExists:
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, 19, dupes.Load())
	assert.Equal(t, 1, repo.Count())
}

func TestMemoryUserRepoLookups(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()
	u := &model.User{Name: "Alice", Email: "alice@example.com", Role: model.RoleAdmin}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, "12")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMemoryComplaintRepoOrderingAndPaging(t *testing.T) {
	users := NewMemoryUserRepo()
	repo := NewMemoryComplaintRepo(users)
	ctx := context.Background()

	owner := &model.User{Name: "Alice", Email: "alice@example.com", Role: model.RoleCitizen}
	require.NoError(t, users.Create(ctx, owner))

	var ids []string
	for i := 0; i < 5; i++ {
		c := &model.Complaint{Title: fmt.Sprintf("c%d", i), Description: "d", Category: model.CategoryOther, Status: model.StatusPending, CreatedBy: owner.ID}
		require.NoError(t, repo.Create(ctx, c))
		ids = append(ids, c.ID)
	}

	page, total, err := repo.ListAll(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)
	assert.Equal(t, &model.Owner{Name: "Alice", Email: "alice@example.com"}, page[0].Owner)

	page, _, err = repo.ListAll(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	page, _, err = repo.ListAll(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryComplaintRepoOwnershipAndStatus(t *testing.T) {
	repo := NewMemoryComplaintRepo(nil)
	ctx := context.Background()

	a := &model.Complaint{Title: "a", Description: "d", Category: model.CategoryRoad, Status: model.StatusPending, CreatedBy: "owner-a"}
	b := &model.Complaint{Title: "b", Description: "d", Category: model.CategoryRoad, Status: model.StatusPending, CreatedBy: "owner-b"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	mine, err := repo.ListByOwner(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	updated, err := repo.UpdateStatus(ctx, b.ID, model.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, updated.Status)
	assert.Equal(t, "owner-b", updated.CreatedBy)

	_, err = repo.UpdateStatus(ctx, "8d2f9a4c-0000-4000-8000-000000000000", model.StatusResolved)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.UpdateStatus(ctx, "nope", model.StatusResolved)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMemoryRepoRejectsNonCanonicalIDs(t *testing.T) {
	users := NewMemoryUserRepo()
	repo := NewMemoryComplaintRepo(users)
	ctx := context.Background()

	c := &model.Complaint{Title: "a", Description: "d", Category: model.CategoryRoad, Status: model.StatusPending, CreatedBy: "owner-a"}
	require.NoError(t, repo.Create(ctx, c))
	assert.True(t, repo.ValidID(c.ID))

	for _, id := range []string{
		"{" + c.ID + "}",
		"urn:uuid:" + c.ID,
		strings.ReplaceAll(c.ID, "-", ""),
		strings.ToUpper(c.ID),
	} {
		assert.False(t, repo.ValidID(id), id)
		_, err := repo.UpdateStatus(ctx, id, model.StatusResolved)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = users.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}
