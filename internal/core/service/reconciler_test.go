package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	"github.com/oluseyia/agentcore-deployer/internal/core/service"
	apperrors "github.com/oluseyia/agentcore-deployer/internal/errors"
	"github.com/oluseyia/agentcore-deployer/mocks"
)

type mockHandler struct {
	mock.Mock
	kind domain.ResourceKind
}

func (m *mockHandler) Kind() domain.ResourceKind { return m.kind }

func (m *mockHandler) Probe(ctx context.Context, name string, logger ports.Logger) (domain.ResourceState, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.ResourceState), args.Error(1)
}

func (m *mockHandler) Create(ctx context.Context, desc domain.ResourceDescriptor, logger ports.Logger) (domain.ResourceIdentity, error) {
	args := m.Called(ctx, desc)
	return args.Get(0).(domain.ResourceIdentity), args.Error(1)
}

func (m *mockHandler) DeleteDependents(ctx context.Context, name string, logger ports.Logger) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockHandler) Delete(ctx context.Context, name string, logger ports.Logger) error {
	return m.Called(ctx, name).Error(0)
}

func newTestReconciler(t *testing.T, handlers ...*mockHandler) (*service.Reconciler, *int) {
	t.Helper()

	registry := service.NewComponentRegistry()
	for _, h := range handlers {
		require.NoError(t, registry.RegisterHandler(h))
	}

	sleeps := 0
	reconciler, err := service.NewReconciler(registry, mocks.NoopLogger{},
		service.WithSleepFunc(func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		}))
	require.NoError(t, err)
	return reconciler, &sleeps
}

func TestReconcileCreatesAbsentResource(t *testing.T) {
	handler := &mockHandler{kind: domain.KindRole}
	handler.On("Probe", mock.Anything, "demo-role").Return(domain.ResourceState{Exists: false}, nil)
	handler.On("Create", mock.Anything, mock.Anything).Return(
		domain.ResourceIdentity{ARN: "arn:aws:iam::123456789012:role/demo-role"}, nil)

	reconciler, sleeps := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindRole, Name: "demo-role"})

	assert.Equal(t, domain.ActionCreated, result.Action)
	assert.Equal(t, "arn:aws:iam::123456789012:role/demo-role", result.Identity.ARN)
	assert.NoError(t, result.Error)
	assert.Zero(t, *sleeps, "creating an absent resource must not wait for a settle delay")
	handler.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	handler.AssertNotCalled(t, "DeleteDependents", mock.Anything, mock.Anything)
}

func TestReconcileRecreatesPresentResource(t *testing.T) {
	handler := &mockHandler{kind: domain.KindFunction}
	order := make([]string, 0, 4)

	handler.On("Probe", mock.Anything, "fn").Return(domain.ResourceState{Exists: true}, nil)
	handler.On("DeleteDependents", mock.Anything, "fn").Run(func(args mock.Arguments) {
		order = append(order, "dependents")
	}).Return(nil)
	handler.On("Delete", mock.Anything, "fn").Run(func(args mock.Arguments) {
		order = append(order, "delete")
	}).Return(nil)
	handler.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		order = append(order, "create")
	}).Return(domain.ResourceIdentity{ID: "fn-id"}, nil)

	reconciler, sleeps := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindFunction, Name: "fn"})

	assert.Equal(t, domain.ActionRecreated, result.Action)
	assert.Equal(t, []string{"dependents", "delete", "create"}, order)
	assert.Equal(t, 1, *sleeps, "recreate must wait out the settle delay between delete and create")
}

func TestReconcileSettlesAfterFreshCreateWhenRequested(t *testing.T) {
	handler := &mockHandler{kind: domain.KindRole}
	handler.On("Probe", mock.Anything, "exec-role").Return(domain.ResourceState{Exists: false}, nil)
	handler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{ID: "role-id"}, nil)

	reconciler, sleeps := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{
		Kind:              domain.KindRole,
		Name:              "exec-role",
		SettleAfterCreate: true,
	})

	assert.Equal(t, domain.ActionCreated, result.Action)
	assert.Equal(t, 1, *sleeps, "a role must settle after creation before dependents run")
}

func TestReconcileSettlesAfterRecreateWhenRequested(t *testing.T) {
	handler := &mockHandler{kind: domain.KindRole}
	handler.On("Probe", mock.Anything, "exec-role").Return(domain.ResourceState{Exists: true}, nil)
	handler.On("DeleteDependents", mock.Anything, "exec-role").Return(nil)
	handler.On("Delete", mock.Anything, "exec-role").Return(nil)
	handler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{ID: "role-id"}, nil)

	reconciler, sleeps := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{
		Kind:              domain.KindRole,
		Name:              "exec-role",
		SettleAfterCreate: true,
	})

	assert.Equal(t, domain.ActionRecreated, result.Action)
	assert.Equal(t, 2, *sleeps, "recreate of a settling resource waits after delete and again after create")
}

func TestReconcilePostCreateSettleInterruptFails(t *testing.T) {
	handler := &mockHandler{kind: domain.KindRole}
	handler.On("Probe", mock.Anything, "exec-role").Return(domain.ResourceState{Exists: false}, nil)
	handler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{ID: "role-id"}, nil)

	registry := service.NewComponentRegistry()
	require.NoError(t, registry.RegisterHandler(handler))
	reconciler, err := service.NewReconciler(registry, mocks.NoopLogger{},
		service.WithSleepFunc(func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		}))
	require.NoError(t, err)

	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{
		Kind:              domain.KindRole,
		Name:              "exec-role",
		SettleAfterCreate: true,
	})

	assert.Equal(t, domain.ActionFailed, result.Action)
	assert.Equal(t, apperrors.CodeCreateError, apperrors.GetCode(result.Error))
}

func TestReconcileProbeErrorFailsWithoutMutation(t *testing.T) {
	handler := &mockHandler{kind: domain.KindGateway}
	handler.On("Probe", mock.Anything, "gw").Return(domain.ResourceState{}, errors.New("throttled"))

	reconciler, _ := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindGateway, Name: "gw"})

	assert.Equal(t, domain.ActionFailed, result.Action)
	assert.Equal(t, apperrors.CodeProbeError, apperrors.GetCode(result.Error))
	handler.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	handler.AssertNotCalled(t, "DeleteDependents", mock.Anything, mock.Anything)
	handler.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestReconcileDependentDeletionFailureLeavesParent(t *testing.T) {
	handler := &mockHandler{kind: domain.KindRole}
	handler.On("Probe", mock.Anything, "role").Return(domain.ResourceState{Exists: true}, nil)
	handler.On("DeleteDependents", mock.Anything, "role").Return(errors.New("policy detach denied"))

	reconciler, _ := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindRole, Name: "role"})

	assert.Equal(t, domain.ActionFailed, result.Action)
	assert.Equal(t, apperrors.CodeDeleteError, apperrors.GetCode(result.Error))
	handler.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	handler.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReconcileCreateFailureAfterDelete(t *testing.T) {
	handler := &mockHandler{kind: domain.KindRepository}
	handler.On("Probe", mock.Anything, "repo").Return(domain.ResourceState{Exists: true}, nil)
	handler.On("DeleteDependents", mock.Anything, "repo").Return(nil)
	handler.On("Delete", mock.Anything, "repo").Return(nil)
	handler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{}, errors.New("quota exceeded"))

	reconciler, _ := newTestReconciler(t, handler)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindRepository, Name: "repo"})

	assert.Equal(t, domain.ActionFailed, result.Action)
	assert.Equal(t, apperrors.CodeCreateError, apperrors.GetCode(result.Error))
}

func TestReconcileUnknownKindFails(t *testing.T) {
	reconciler, _ := newTestReconciler(t)
	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindGateway, Name: "gw"})

	assert.Equal(t, domain.ActionFailed, result.Action)
	assert.Error(t, result.Error)
}

func TestReconcileAllStopsAfterFirstFailure(t *testing.T) {
	roleHandler := &mockHandler{kind: domain.KindRole}
	roleHandler.On("Probe", mock.Anything, "role").Return(domain.ResourceState{Exists: false}, nil)
	roleHandler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{}, errors.New("denied"))

	fnHandler := &mockHandler{kind: domain.KindFunction}

	reconciler, _ := newTestReconciler(t, roleHandler, fnHandler)
	results := reconciler.ReconcileAll(context.Background(), []domain.ResourceDescriptor{
		{Kind: domain.KindRole, Name: "role"},
		{Kind: domain.KindFunction, Name: "fn"},
	})

	require.Len(t, results, 1, "the run must stop at the first failed resource")
	assert.Equal(t, domain.ActionFailed, results[0].Action)
	fnHandler.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}

func TestReconcileAllPreservesCallerOrder(t *testing.T) {
	var order []string

	roleHandler := &mockHandler{kind: domain.KindRole}
	roleHandler.On("Probe", mock.Anything, "role").Run(func(args mock.Arguments) {
		order = append(order, "role")
	}).Return(domain.ResourceState{Exists: false}, nil)
	roleHandler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{}, nil)

	fnHandler := &mockHandler{kind: domain.KindFunction}
	fnHandler.On("Probe", mock.Anything, "fn").Run(func(args mock.Arguments) {
		order = append(order, "fn")
	}).Return(domain.ResourceState{Exists: false}, nil)
	fnHandler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{}, nil)

	reconciler, _ := newTestReconciler(t, roleHandler, fnHandler)
	results := reconciler.ReconcileAll(context.Background(), []domain.ResourceDescriptor{
		{Kind: domain.KindRole, Name: "role"},
		{Kind: domain.KindFunction, Name: "fn"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, []string{"role", "fn"}, order)
	assert.Equal(t, domain.KindRole, results[0].Kind)
	assert.Equal(t, domain.KindFunction, results[1].Kind)
}

// A full convergence cycle: first run creates, second run recreates.
func TestReconcileConvergesAcrossRuns(t *testing.T) {
	handler := &mockHandler{kind: domain.KindGateway}
	handler.On("Probe", mock.Anything, "gw").Return(domain.ResourceState{Exists: false}, nil).Once()
	handler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{ID: "gw-1"}, nil).Once()

	reconciler, _ := newTestReconciler(t, handler)
	desc := domain.ResourceDescriptor{Kind: domain.KindGateway, Name: "gw"}

	first := reconciler.Reconcile(context.Background(), desc)
	assert.Equal(t, domain.ActionCreated, first.Action)

	handler.On("Probe", mock.Anything, "gw").Return(domain.ResourceState{Exists: true}, nil).Once()
	handler.On("DeleteDependents", mock.Anything, "gw").Return(nil).Once()
	handler.On("Delete", mock.Anything, "gw").Return(nil).Once()
	handler.On("Create", mock.Anything, mock.Anything).Return(domain.ResourceIdentity{ID: "gw-2"}, nil).Once()

	second := reconciler.Reconcile(context.Background(), desc)
	assert.Equal(t, domain.ActionRecreated, second.Action)
	assert.Equal(t, "gw-2", second.Identity.ID)
	handler.AssertExpectations(t)
}

func TestReconcileSettleInterruptFails(t *testing.T) {
	handler := &mockHandler{kind: domain.KindFunction}
	handler.On("Probe", mock.Anything, "fn").Return(domain.ResourceState{Exists: true}, nil)
	handler.On("DeleteDependents", mock.Anything, "fn").Return(nil)
	handler.On("Delete", mock.Anything, "fn").Return(nil)

	registry := service.NewComponentRegistry()
	require.NoError(t, registry.RegisterHandler(handler))
	reconciler, err := service.NewReconciler(registry, mocks.NoopLogger{},
		service.WithSleepFunc(func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		}))
	require.NoError(t, err)

	result := reconciler.Reconcile(context.Background(), domain.ResourceDescriptor{Kind: domain.KindFunction, Name: "fn"})

	assert.Equal(t, domain.ActionFailed, result.Action)
	assert.Equal(t, apperrors.CodeDeleteError, apperrors.GetCode(result.Error))
	handler.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
