package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/satishbabariya/pulseorm/cli/commands"
	"github.com/satishbabariya/pulseorm/cli/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
