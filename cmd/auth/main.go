// Command auth runs the Skygate authentication service.
package main

import (
	"fmt"
	"os"

	"github.com/aussiebroadwan/skygate/internal/auth/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize auth service: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "auth service error: %v\n", err)
		os.Exit(1)
	}
}
