// Package cli provides the command-line interface for seocrawl.
package cli

import (
	"context"
	"fmt"

	"github.com/law-makers/seocrawl/internal/app"
	"github.com/spf13/cobra"
)

type ctxKey struct{}

// withApp stores the Application on the command context
func withApp(cmd *cobra.Command, a *app.Application) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, ctxKey{}, a))
}

// appFrom returns the Application initialized for cmd
func appFrom(cmd *cobra.Command) (*app.Application, error) {
	if ctx := cmd.Context(); ctx != nil {
		if a, ok := ctx.Value(ctxKey{}).(*app.Application); ok && a != nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("application not initialized")
}
