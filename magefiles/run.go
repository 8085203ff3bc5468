//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the testbed with the default settings file.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	if _, err := executeCmd("bin/gamex", withArgs("-settings", "settings.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed with the Vulkan validation layers enabled.
func (Run) Debug() error {
	mg.Deps(Build.Engine)
	if _, err := executeCmd("bin/gamex", withArgs("-settings", "settings.debug.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
