//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and starts the cube on the OpenGL backend.
func (Run) GL() error {
	return runCube("gl")
}

// Builds and starts the cube on the WebGPU backend.
func (Run) WGPU() error {
	return runCube("wgpu")
}

func runCube(backend string) error {
	mg.Deps(Build.Binary)
	args := []string{"-backend", backend}
	if cfg := os.Getenv("OXYCUBE_CONFIG"); cfg != "" {
		args = append(args, "-config", cfg)
	}
	fmt.Printf("Run oxycube on %s...\n", backend)
	_, err := executeCmd(binary, withArgs(args...), withStream())
	return err
}
