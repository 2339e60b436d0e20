package contexthelpers

import (
	"context"
)

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(CurrentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}

func CSPNonce(ctx context.Context) string {
	cspNonce, ok := ctx.Value(CspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return cspNonce
}

// Environment returns the training environment tag selected for the request or "" when none is selected.
func Environment(ctx context.Context) string {
	environment, ok := ctx.Value(EnvironmentContextKey).(string)
	if !ok {
		return ""
	}
	return environment
}
