// Command linksim runs the link service against a simulated radio, either
// headless or with an interactive terminal view.
package main

import "os"

// version is set by the linker.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}
