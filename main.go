// The main package for the artcrawl executable.
package main

import (
	"github.com/gallerytools/artcrawl/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
