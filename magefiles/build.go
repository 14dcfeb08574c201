//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

const binary = "bin/oxycube"

type Build mg.Namespace

// Compiles cmd/oxycube into bin/oxycube. The glfw and gl bindings need cgo.
func (Build) Binary() error {
	_, err := executeCmd("go", withArgs("build", "-o", binary, "./cmd/oxycube"), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}

// Runs go vet over every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Runs the unit tests with the race detector.
func (Build) Test() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withEnv("CGO_ENABLED", "1"), withStream())
	return err
}
