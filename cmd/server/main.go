package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/Wisaacj/Supervisor/internal/app"
)

func main() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	application, err := app.NewApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	os.Exit(application.Run(signals))
}
