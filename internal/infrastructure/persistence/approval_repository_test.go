package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/manufacturing/internal/domain/approval"
	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/models"
	"github.com/erp/manufacturing/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T) *approval.ApprovalChain {
	t.Helper()
	chain, err := approval.NewApprovalChain(approval.DocumentTypePurchaseOrder, 1, approval.RoleProductionManager, approval.RoleAccountant)
	require.NoError(t, err)
	return chain
}

func TestGormApprovalChainRepository_FindAll(t *testing.T) {
	db := persistencetest.NewDB(t)
	repo := NewGormApprovalChainRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestChain(t)))

	chains, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.Len(t, chains[0].Steps, 2)
	assert.Equal(t, approval.RoleProductionManager, chains[0].Steps[0].Role)
	assert.Equal(t, approval.RoleAccountant, chains[0].Steps[1].Role)
	assert.True(t, chains[0].Active)
}

func TestGormApprovalRequestRepository(t *testing.T) {
	db := persistencetest.NewDB(t)
	repo := NewGormApprovalRequestRepository(db)
	ctx := context.Background()
	chain := newTestChain(t)
	docID := uuid.New()

	req, err := approval.NewApprovalRequest(chain, docID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	t.Run("second pending request for the same document is rejected", func(t *testing.T) {
		dup, err := approval.NewApprovalRequest(chain, docID, uuid.New())
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("find pending by document", func(t *testing.T) {
		found, err := repo.FindPendingByDocument(ctx, approval.DocumentTypePurchaseOrder, docID)
		require.NoError(t, err)
		assert.Equal(t, req.ID, found.ID)
		assert.Equal(t, 0, found.CurrentStep)

		_, err = repo.FindPendingByDocument(ctx, approval.DocumentTypePayroll, docID)
		assert.ErrorIs(t, err, approval.ErrRequestNotFound)
	})

	t.Run("save appends entries", func(t *testing.T) {
		manager := approval.Approver{ID: uuid.New(), Name: "Mira", Role: approval.RoleProductionManager, Active: true}
		accountant := approval.Approver{ID: uuid.New(), Name: "Ode", Role: approval.RoleAccountant, Active: true}

		loaded, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		_, err = loaded.Approve(chain, manager, "ok", time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		loaded, err = repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Entries, 1)
		assert.Equal(t, 1, loaded.CurrentStep)

		outcome, err := loaded.Approve(chain, accountant, "", time.Now())
		require.NoError(t, err)
		require.True(t, outcome.Completed())
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		final, err := repo.FindByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, final.Status)
		require.Len(t, final.Entries, 2)
		assert.Equal(t, 0, final.Entries[0].Step)
		assert.Equal(t, 1, final.Entries[1].Step)
		assert.Equal(t, "Ode", final.Entries[1].ApproverName)
		assert.NotNil(t, final.CompletedAt)
		assert.NoError(t, final.CheckInvariant(chain))
	})

	t.Run("stale save conflicts", func(t *testing.T) {
		other, err := approval.NewApprovalRequest(chain, uuid.New(), uuid.New())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, other))

		a, err := repo.FindByID(ctx, other.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, other.ID)
		require.NoError(t, err)

		manager := approval.Approver{ID: uuid.New(), Name: "Mira", Role: approval.RoleProductionManager, Active: true}
		_, err = a.Approve(chain, manager, "", time.Now())
		require.NoError(t, err)
		_, err = b.Approve(chain, manager, "", time.Now())
		require.NoError(t, err)

		require.NoError(t, repo.SaveWithLock(ctx, a))
		assert.ErrorIs(t, repo.SaveWithLock(ctx, b), shared.ErrConcurrencyConflict)

		pending, err := repo.FindPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, other.ID, pending[0].ID)
		assert.Len(t, pending[0].Entries, 1)
	})

	t.Run("a decided document can be submitted again", func(t *testing.T) {
		again, err := approval.NewApprovalRequest(chain, docID, uuid.New())
		require.NoError(t, err)
		assert.NoError(t, repo.Create(ctx, again))
	})
}

func TestGormApproverDirectory(t *testing.T) {
	db := persistencetest.NewDB(t)
	dir := NewGormApproverDirectory(db)
	ctx := context.Background()

	users := []*models.UserModel{
		{Name: "Zed", Email: "zed@example.com", Role: approval.RoleAccountant, Active: true},
		{Name: "Ann", Email: "ann@example.com", Role: approval.RoleAccountant, Active: true},
		{Name: "Bob", Email: "bob@example.com", Role: approval.RoleAccountant, Active: false},
		{Name: "Cat", Email: "cat@example.com", Role: approval.RoleAdmin, Active: true},
	}
	for _, u := range users {
		u.ID = uuid.New()
		require.NoError(t, db.Create(u).Error)
	}

	found, err := dir.FindActiveByRole(ctx, approval.RoleAccountant)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Ann", found[0].Name)
	assert.Equal(t, "Zed", found[1].Name)

	one, err := dir.FindByID(ctx, users[3].ID)
	require.NoError(t, err)
	assert.Equal(t, approval.RoleAdmin, one.Role)

	_, err = dir.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, approval.ErrApproverNotFound)
}
