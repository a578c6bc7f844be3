// Package capability implements the authorization gate evaluated at the
// boundary layer. The ledger engine itself never checks identity: callers
// evaluate a Gate before invoking an operation, and the engine enforces its
// data invariants unconditionally either way.
//
// The gate is an explicit policy object: privileged roles are spelled out in
// the policy expression instead of being special-cased inside the engine.
package capability

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/appctx"
)

// Capability keys. These mirror the permission keys of the desktop
// application's authorization layer.
const (
	OrdersCreate   = "orders_create"
	OrdersSubmit   = "orders_submit"
	OrdersReceive  = "orders_receive"
	OrdersCancel   = "orders_cancel"
	OrdersClose    = "orders_close"
	OrdersReturn   = "orders_return"
	TrucksTransfer = "trucks_transfer"
	TrucksConsume  = "trucks_consume"
	CatalogManage  = "catalog_manage"

	// Admin short-circuits the default policy expression.
	Admin = "admin"
)

// Gate decides whether the acting user may invoke an operation.
type Gate interface {
	Allow(ctx context.Context, capability string) error
}

// DefaultPolicyExpr grants an operation when the caller holds the specific
// capability or the admin capability.
const DefaultPolicyExpr = `capability in capabilities || "admin" in capabilities`

// PolicyGate evaluates a CEL expression against the acting user's
// capability set. The expression is compiled once; evaluation is
// allocation-light and safe for per-request use.
type PolicyGate struct {
	program cel.Program
	expr    string
}

// NewPolicyGate compiles the policy expression. An empty expression selects
// DefaultPolicyExpr.
func NewPolicyGate(expr string) (*PolicyGate, error) {
	if expr == "" {
		expr = DefaultPolicyExpr
	}

	env, err := cel.NewEnv(
		cel.Variable("capability", cel.StringType),
		cel.Variable("capabilities", cel.ListType(cel.StringType)),
		cel.Variable("username", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create policy env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile policy %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	return &PolicyGate{program: program, expr: expr}, nil
}

// Allow implements Gate.
func (g *PolicyGate) Allow(ctx context.Context, capability string) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	caps := user.Capabilities
	if caps == nil {
		caps = []string{}
	}

	out, _, err := g.program.Eval(map[string]any{
		"capability":   capability,
		"capabilities": caps,
		"username":     user.Username,
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate policy: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("policy %q returned non-bool", g.expr))
	}
	if !allowed {
		return apperror.NewForbidden("missing capability").
			WithDetail("capability", capability)
	}
	return nil
}

// AllowAll is a Gate that permits everything. For tests and seed jobs.
type AllowAll struct{}

func (AllowAll) Allow(ctx context.Context, capability string) error { return nil }
