package main

import (
	"os"

	"daisyc/cmd"
)

func main() {
	os.Exit(cmd.RunCompiler())
}
