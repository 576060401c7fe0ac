package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dixieflatline76/Canvaz/pkg/backend"
)

func main() {
	if err := Execute(); err != nil {
		if errors.Is(err, backend.ErrPlatformUnavailable) {
			fmt.Fprintln(os.Stderr, "No usable display server was found; the background was left unchanged.")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
