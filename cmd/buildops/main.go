// Command buildops runs the curriculum import pipeline from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Sync()
}
