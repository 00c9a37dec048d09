package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCLI(Deps{}).Execute(ctx); err != nil {
		stop()
		fatal(err)
	}
}
