//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the viewer. SHADERS and SETTINGS override the shader directory and the settings file.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)

	args := []string{
		"-shaders", envOr("SHADERS", "shaders"),
		"-settings", envOr("SETTINGS", "settings.toml"),
	}
	if os.Getenv("FALLBACK_ADAPTER") != "" {
		args = append(args, "-fallback-adapter")
	}
	fmt.Println("Run viewer...")
	_, err := executeCmd("bin/viewer", withArgs(args...), withStream())
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
