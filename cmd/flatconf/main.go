// Command flatconf inspects layered configuration files: it prints the
// effective settings for file paths, traces where a value came from and checks
// that a configuration loads.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
