package engine

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/gamex/engine/core"
)

type ownedResource struct {
	name    string
	release func() error
}

// ownedList releases resources in the reverse order they were added.
type ownedList struct {
	resources []ownedResource
}

func (l *ownedList) push(name string, release func() error) {
	l.resources = append(l.resources, ownedResource{name: name, release: release})
}

func (l *ownedList) len() int {
	return len(l.resources)
}

// releaseAll empties the list. Every resource is released even when an
// earlier one fails; the failures are joined.
func (l *ownedList) releaseAll() error {
	var errs []error
	for i := len(l.resources) - 1; i >= 0; i-- {
		r := l.resources[i]
		core.LogInfo("Releasing %s...", r.name)
		if err := r.release(); err != nil {
			core.LogError("failed to release %s: %s", r.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
		}
	}
	l.resources = nil
	return errors.Join(errs...)
}
