// Package main provides the spsync CLI.
package main

import "github.com/mesh-intelligence/spsync/internal/cli"

func main() {
	cli.Execute()
}
