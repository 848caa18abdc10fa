package main

import (
	"os"
)

// main runs the kvstore command line.
// go run ./cmd/kvstore --uri file:///tmp/kv put hello world
func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
