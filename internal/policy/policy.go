// Package policy decides which roles may perform administrative actions,
// using an embedded Rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Actions guarded by the policy.
const (
	ManageEvents      = "events:manage"
	ReadRegistrations = "registrations:read"
	ManageCRM         = "crm:manage"
	ManageForms       = "forms:manage"
)

const query = "data.schoolportal.authz.allow"

const regoPolicy = `package schoolportal.authz

default allow := false

staff_roles := {"admin", "staff"}

staff_actions := {"events:manage", "registrations:read", "crm:manage", "forms:manage"}

allow if {
	input.role in staff_roles
	input.action in staff_actions
}
`

// Authorizer evaluates the policy.
type Authorizer struct {
	prepared rego.PreparedEvalQuery
}

// New compiles the embedded policy.
func New(ctx context.Context) (*Authorizer, error) {
	pq, err := rego.New(
		rego.Query(query),
		rego.Module("authz.rego", regoPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	return &Authorizer{prepared: pq}, nil
}

// Allowed reports whether role may perform action.
func (a *Authorizer) Allowed(ctx context.Context, role, action string) (bool, error) {
	rs, err := a.prepared.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"role":   role,
		"action": action,
	}))
	if err != nil {
		return false, fmt.Errorf("eval authz policy: %w", err)
	}
	return rs.Allowed(), nil
}
