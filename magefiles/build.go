//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the viewer binary into bin/.
func (Build) Viewer() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/viewer", "./cmd/viewer"), withStream())
	return err
}

// Runs go vet over the module.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Runs the unit tests with the race detector.
func (Build) Test() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}
