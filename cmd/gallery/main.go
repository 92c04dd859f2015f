package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/zopapami/artgallery/cmd/gallery/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.RootCmd().ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
