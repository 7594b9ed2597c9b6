package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danbi-garden/danbi/cmd"
	"github.com/danbi-garden/danbi/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := app.NewContext()
	rootCmd := cmd.RootCommand(appCtx)

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := appCtx.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}
