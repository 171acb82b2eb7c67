package main

import (
	"os"

	"toolup/cmd"
)

// main delegates to cmd.Execute, which parses flags, installs the requested
// tools and returns the process exit code.
func main() {
	os.Exit(cmd.Execute())
}
