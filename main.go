// The main package for the requestwatch executable.
package main

import (
	"github.com/JakeFAU/request-watch/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
