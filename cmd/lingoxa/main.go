// Command lingoxa is the entry point for the Lingoxa practice server and its
// offline tools.
package main

import (
	"os"

	"github.com/MrWong99/lingoxa/cmd/lingoxa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
