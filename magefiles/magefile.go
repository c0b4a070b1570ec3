//go:build mage

// Package main provides build targets for the spsync project using Mage.
//
// Usage:
//
//	mage build          Compile spsync binary to bin/
//	mage test:all       Run all tests
//	mage test:short     Run tests in -short mode
//	mage test:cover     Run tests with a coverage profile
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage clean          Remove build artifacts
//	mage install        Install spsync to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main

const (
	binGo      = "go"
	binaryName = "spsync"
	binaryDir  = "bin"
	cmdDir     = "./cmd/spsync"
	versionVar = "github.com/mesh-intelligence/spsync/internal/cli.Version"
)

// Default runs when mage is called without a target.
var Default = Build
