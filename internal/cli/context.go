// Package cli provides the command-line interface for dutyscrape.
package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/law-makers/dutyscrape/internal/app"
)

// ctxKey is used for storing the application in command contexts
type ctxKey string

const appKey ctxKey = "app"

var (
	activeMu sync.Mutex
	active   *app.Application
)

// SetApp stores the Application in the command's context
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey, a))

	activeMu.Lock()
	active = a
	activeMu.Unlock()
}

// GetAppFromCmd retrieves the Application stored by SetApp
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey).(*app.Application)
	return a
}

// takeActive returns the current application and forgets it
func takeActive() *app.Application {
	activeMu.Lock()
	defer activeMu.Unlock()
	a := active
	active = nil
	return a
}
