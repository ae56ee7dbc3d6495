// Command tsoa resolves a declaration set into reference metadata and
// writes the materialized models, routes and JSON Schema.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
