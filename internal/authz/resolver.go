// Package authz answers "may user U perform action A on module M, optionally
// within project P". Three independent grant mechanisms are consulted in
// order: a direct user grant, a project-scoped grant and the role inherited
// through the user's project allocation. Any one of them is sufficient, so
// the resolver is an ordered OR of capability sources rather than a strict
// RBAC hierarchy.
package authz

import (
	"context"

	"github.com/trackforge/defecttrack/dao/model"
)

// Decision is the outcome of a single source. A source abstains when the
// request is outside its reach (e.g. a project-scoped source without a
// project id); resolution stops at the first Allow.
type Decision int

const (
	Abstain Decision = iota
	Allow
	Deny
)

// Request identifies one capability check.
type Request struct {
	UserID    uint
	Module    string
	Action    model.Action
	ProjectID *uint
}

// Source resolves one grant mechanism. Lookup errors must be returned as
// errors, never mapped to Deny; the caller distinguishes 403 from 500.
type Source interface {
	Name() string
	Resolve(ctx context.Context, req Request) (Decision, error)
}

// Store is the persistence surface the default sources rely on.
type Store interface {
	// HasUserPrivilege reports an active direct grant for the capability.
	// Grants with a NULL project scope match any project; expired grants
	// never match.
	HasUserPrivilege(ctx context.Context, userID uint, module string, action model.Action, projectID *uint) (bool, error)
	// HasProjectPrivilege reports an active grant scoped to exactly one project.
	HasProjectPrivilege(ctx context.Context, userID, projectID uint, module string, action model.Action) (bool, error)
	// ActiveAllocationRole returns the role of the user's active allocation,
	// scoped to the project when given. When several active rows exist the
	// most recently created one wins.
	ActiveAllocationRole(ctx context.Context, userID uint, projectID *uint) (roleID uint, found bool, err error)
	// HasGroupPrivilege reports an active role-to-privilege link.
	HasGroupPrivilege(ctx context.Context, roleID uint, module string, action model.Action) (bool, error)
	// IsProjectOwner reports whether the user created the project.
	IsProjectOwner(ctx context.Context, userID, projectID uint) (bool, error)
	// HasActiveAllocation reports current membership regardless of role.
	HasActiveAllocation(ctx context.Context, userID, projectID uint) (bool, error)
}

// Resolver walks its sources in order and short-circuits on the first
// Allow. No caching: privilege checks gate low-frequency administrative
// mutations, not hot-path reads.
type Resolver struct {
	store   Store
	sources []Source
}

// NewResolver wires the three default grant sources over the given store.
// Additional sources can be appended without touching the existing ones.
func NewResolver(store Store, extra ...Source) *Resolver {
	sources := []Source{
		userGrantSource{store},
		projectGrantSource{store},
		roleGrantSource{store},
	}
	sources = append(sources, extra...)
	return &Resolver{store: store, sources: sources}
}

// Authorize returns true when any source allows the request. A store error
// aborts resolution and propagates; it is not a denial.
func (r *Resolver) Authorize(ctx context.Context, userID uint, module string, action model.Action, projectID *uint) (bool, error) {
	req := Request{UserID: userID, Module: module, Action: action, ProjectID: projectID}
	for _, src := range r.sources {
		decision, err := src.Resolve(ctx, req)
		if err != nil {
			return false, err
		}
		if decision == Allow {
			return true, nil
		}
	}
	return false, nil
}

// IsProjectMember is the coarse membership gate used before the
// fine-grained Authorize on project-scoped routes: project owner OR an
// active allocation.
func (r *Resolver) IsProjectMember(ctx context.Context, userID, projectID uint) (bool, error) {
	owner, err := r.store.IsProjectOwner(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	if owner {
		return true, nil
	}
	return r.store.HasActiveAllocation(ctx, userID, projectID)
}

type userGrantSource struct {
	store Store
}

func (s userGrantSource) Name() string { return "user-grant" }

func (s userGrantSource) Resolve(ctx context.Context, req Request) (Decision, error) {
	ok, err := s.store.HasUserPrivilege(ctx, req.UserID, req.Module, req.Action, req.ProjectID)
	if err != nil {
		return Abstain, err
	}
	if ok {
		return Allow, nil
	}
	return Abstain, nil
}

type projectGrantSource struct {
	store Store
}

func (s projectGrantSource) Name() string { return "project-grant" }

func (s projectGrantSource) Resolve(ctx context.Context, req Request) (Decision, error) {
	if req.ProjectID == nil {
		return Abstain, nil
	}
	ok, err := s.store.HasProjectPrivilege(ctx, req.UserID, *req.ProjectID, req.Module, req.Action)
	if err != nil {
		return Abstain, err
	}
	if ok {
		return Allow, nil
	}
	return Abstain, nil
}

type roleGrantSource struct {
	store Store
}

func (s roleGrantSource) Name() string { return "role-grant" }

func (s roleGrantSource) Resolve(ctx context.Context, req Request) (Decision, error) {
	roleID, found, err := s.store.ActiveAllocationRole(ctx, req.UserID, req.ProjectID)
	if err != nil {
		return Abstain, err
	}
	if !found {
		return Abstain, nil
	}
	ok, err := s.store.HasGroupPrivilege(ctx, roleID, req.Module, req.Action)
	if err != nil {
		return Abstain, err
	}
	if ok {
		return Allow, nil
	}
	return Abstain, nil
}
