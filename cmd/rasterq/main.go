// Package main is the single-binary entrypoint for rasterq.
package main

import "github.com/tutu-network/rasterq/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
