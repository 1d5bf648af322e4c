// Command gqlengine serves and executes GraphQL requests against a schema
// written in SDL, resolving fields from a static JSON or YAML data file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
