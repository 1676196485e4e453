package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"byproduct-catalog/internal/cli/commands"
	"byproduct-catalog/internal/cli/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := commands.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	if !commands.IsReported(err) {
		ui.PrintError("%s", err)
		if strings.Contains(err.Error(), "unknown command") {
			fmt.Println("\nRun 'bpcat --help' for usage.")
		}
	}
	os.Exit(1)
}
