package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxWorkspaceID
	ctxRole
)

// WithIdentity stamps the verified caller identity onto ctx. Downstream
// layers (rbac, handlers, call service) read it back with the accessors
// below instead of re-parsing the token.
func WithIdentity(ctx context.Context, userID, workspaceID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxWorkspaceID, workspaceID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxUserID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func WorkspaceID(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxWorkspaceID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("workspace_id not in context")
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
