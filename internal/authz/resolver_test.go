package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/defecttrack/dao/model"
)

type grantKey struct {
	userID  uint
	module  string
	action  model.Action
	project uint // 0 means unscoped
}

// fakeStore is an in-memory Store with togglable grants per mechanism.
type fakeStore struct {
	userGrants      map[grantKey]bool
	projectGrants   map[grantKey]bool
	allocationRoles map[uint]uint // userID+projectID*1000 -> roleID
	groupGrants     map[grantKey]bool
	owners          map[uint]uint // projectID -> ownerID
	err             error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		userGrants:      map[grantKey]bool{},
		projectGrants:   map[grantKey]bool{},
		allocationRoles: map[uint]uint{},
		groupGrants:     map[grantKey]bool{},
		owners:          map[uint]uint{},
	}
}

func allocKey(userID uint, projectID *uint) uint {
	if projectID == nil {
		return userID
	}
	return userID + *projectID*1000
}

func (f *fakeStore) HasUserPrivilege(_ context.Context, userID uint, module string, action model.Action, projectID *uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	// Unscoped grant matches any project.
	if f.userGrants[grantKey{userID, module, action, 0}] {
		return true, nil
	}
	if projectID != nil {
		return f.userGrants[grantKey{userID, module, action, *projectID}], nil
	}
	return false, nil
}

func (f *fakeStore) HasProjectPrivilege(_ context.Context, userID, projectID uint, module string, action model.Action) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.projectGrants[grantKey{userID, module, action, projectID}], nil
}

func (f *fakeStore) ActiveAllocationRole(_ context.Context, userID uint, projectID *uint) (uint, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	roleID, ok := f.allocationRoles[allocKey(userID, projectID)]
	return roleID, ok, nil
}

func (f *fakeStore) HasGroupPrivilege(_ context.Context, roleID uint, module string, action model.Action) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.groupGrants[grantKey{roleID, module, action, 0}], nil
}

func (f *fakeStore) IsProjectOwner(_ context.Context, userID, projectID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.owners[projectID] == userID, nil
}

func (f *fakeStore) HasActiveAllocation(_ context.Context, userID, projectID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.allocationRoles[allocKey(userID, &projectID)]
	return ok, nil
}

func ptr(v uint) *uint { return &v }

func TestAuthorizeDeniesWithoutAnyGrant(t *testing.T) {
	r := NewResolver(newFakeStore())

	ok, err := r.Authorize(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, ptr(10))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeUserGrant(t *testing.T) {
	store := newFakeStore()
	store.userGrants[grantKey{1, model.ModuleProjects, model.ActionCreate, 0}] = true
	r := NewResolver(store)

	// Unscoped grant matches both a project-scoped and an unscoped check.
	ok, err := r.Authorize(context.Background(), 1, model.ModuleProjects, model.ActionCreate, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Authorize(context.Background(), 1, model.ModuleProjects, model.ActionCreate, ptr(7))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthorizeUserGrantDoesNotLeakAcrossProjects(t *testing.T) {
	store := newFakeStore()
	projectA, projectB := uint(1), uint(2)
	store.userGrants[grantKey{1, model.ModuleDefects, model.ActionUpdate, projectA}] = true
	r := NewResolver(store)

	ok, err := r.Authorize(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, ptr(projectA))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Authorize(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, ptr(projectB))
	require.NoError(t, err)
	assert.False(t, ok, "grant scoped to project A must not allow project B")
}

func TestAuthorizeProjectGrant(t *testing.T) {
	store := newFakeStore()
	store.projectGrants[grantKey{1, model.ModuleReleases, model.ActionCreate, 5}] = true
	r := NewResolver(store)

	ok, err := r.Authorize(context.Background(), 1, model.ModuleReleases, model.ActionCreate, ptr(5))
	require.NoError(t, err)
	assert.True(t, ok)

	// Without a project id the project-grant source abstains.
	ok, err = r.Authorize(context.Background(), 1, model.ModuleReleases, model.ActionCreate, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeRoleGrant(t *testing.T) {
	store := newFakeStore()
	const roleID = 3
	store.allocationRoles[allocKey(1, ptr(10))] = roleID
	store.groupGrants[grantKey{roleID, model.ModuleDefects, model.ActionUpdate, 0}] = true
	r := NewResolver(store)

	ok, err := r.Authorize(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, ptr(10))
	require.NoError(t, err)
	assert.True(t, ok)

	// Deactivating the group privilege flips the result with everything
	// else unchanged.
	store.groupGrants[grantKey{roleID, model.ModuleDefects, model.ActionUpdate, 0}] = false
	ok, err = r.Authorize(context.Background(), 1, model.ModuleDefects, model.ActionUpdate, ptr(10))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeStoreErrorIsNotADenial(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection reset")
	r := NewResolver(store)

	_, err := r.Authorize(context.Background(), 1, model.ModuleDefects, model.ActionRead, ptr(1))
	require.Error(t, err)
}

func TestIsProjectMember(t *testing.T) {
	store := newFakeStore()
	store.owners[4] = 9
	store.allocationRoles[allocKey(2, ptr(4))] = 1
	r := NewResolver(store)

	ok, err := r.IsProjectMember(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.True(t, ok, "owner is a member")

	ok, err = r.IsProjectMember(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.True(t, ok, "allocated user is a member")

	ok, err = r.IsProjectMember(context.Background(), 3, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtraSourceIsConsultedLast(t *testing.T) {
	store := newFakeStore()
	called := false
	extra := sourceFunc(func(context.Context, Request) (Decision, error) {
		called = true
		return Allow, nil
	})
	r := NewResolver(store, extra)

	ok, err := r.Authorize(context.Background(), 1, model.ModuleUsers, model.ActionManage, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, called)
}

type sourceFunc func(ctx context.Context, req Request) (Decision, error)

func (f sourceFunc) Name() string { return "test" }
func (f sourceFunc) Resolve(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}
