package core

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// ActionImport is the only action checked by the pipeline.
const ActionImport = "import"

// roleModel is a plain role/object/action ACL. Roles are compared as exact strings.
const roleModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Authorizer decides whether a role may bulk import an entity.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewAuthorizer builds an authorizer from the allow-lists of defs.
func NewAuthorizer(defs []EntityDefinition) (*Authorizer, error) {
	m, err := model.NewModelFromString(roleModel)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	enf, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: init enforcer: %w", err)
	}

	for _, def := range defs {
		for _, role := range def.Info.AllowedRoles {
			if _, err := enf.AddPolicy(role, def.Info.Key, ActionImport); err != nil {
				return nil, fmt.Errorf("authz: add policy %s/%s: %w", role, def.Info.Key, err)
			}
		}
	}

	return &Authorizer{enforcer: enf}, nil
}

// CanImport reports whether role may import entity.
func (a *Authorizer) CanImport(role, entity string) (bool, error) {
	if role == "" {
		return false, nil
	}
	return a.enforcer.Enforce(role, entity, ActionImport)
}

// Authorize returns a *PermissionError if role may not import entity.
func (a *Authorizer) Authorize(role, entity string) error {
	ok, err := a.CanImport(role, entity)
	if err != nil {
		return fmt.Errorf("authz: enforce: %w", err)
	}
	if !ok {
		return &PermissionError{Role: role, Entity: entity}
	}
	return nil
}
