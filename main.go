package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alfariiizi/vpkg-template/cmd"
	registryerrors "github.com/alfariiizi/vpkg-template/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// A failed verdict is already explained by the report.
		if !errors.Is(err, registryerrors.ErrValidationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(registryerrors.ExitCode(err))
	}
}
