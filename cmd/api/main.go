// Command api serves the kusina HTTP and gRPC endpoints without the CLI wrapper.
package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/Additional-Code/kusina/internal/app"
)

func main() {
	application := fx.New(app.HTTP)
	if err := application.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "kusina api: %v\n", err)
		os.Exit(1)
	}
	application.Run()
}
