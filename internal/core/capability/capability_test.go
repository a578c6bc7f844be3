package capability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/appctx"
	"partsledger/internal/core/capability"
	"partsledger/internal/core/id"
)

func userCtx(caps ...string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.User{
		UserID:       id.New(),
		Username:     "tech1",
		Capabilities: caps,
	})
}

func TestDefaultPolicy(t *testing.T) {
	gate, err := capability.NewPolicyGate("")
	require.NoError(t, err)

	err = gate.Allow(userCtx(capability.OrdersReceive), capability.OrdersReceive)
	assert.NoError(t, err)

	err = gate.Allow(userCtx(capability.OrdersReceive), capability.OrdersCancel)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	// admin passes everything.
	err = gate.Allow(userCtx(capability.Admin), capability.CatalogManage)
	assert.NoError(t, err)
}

func TestUnauthenticated(t *testing.T) {
	gate, err := capability.NewPolicyGate("")
	require.NoError(t, err)

	err = gate.Allow(context.Background(), capability.OrdersCreate)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestNoCapabilities(t *testing.T) {
	gate, err := capability.NewPolicyGate("")
	require.NoError(t, err)

	err = gate.Allow(userCtx(), capability.TrucksConsume)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestCustomExpression(t *testing.T) {
	gate, err := capability.NewPolicyGate(`username == "root"`)
	require.NoError(t, err)

	root := appctx.WithUser(context.Background(), &appctx.User{UserID: id.New(), Username: "root"})
	assert.NoError(t, gate.Allow(root, capability.OrdersClose))

	err = gate.Allow(userCtx(capability.Admin), capability.OrdersClose)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestInvalidExpression(t *testing.T) {
	_, err := capability.NewPolicyGate(`capability +`)
	assert.Error(t, err)

	// Non-bool policies are rejected at compile time.
	_, err = capability.NewPolicyGate(`username`)
	assert.Error(t, err)
}
