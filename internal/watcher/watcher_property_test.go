//go:build property

package watcher

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates batching properties of the debouncer
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property: a burst becomes one sorted batch with one event per path
	properties.Property("burst collapses to unique sorted paths", prop.ForAll(
		func(ids []int) bool {
			if len(ids) == 0 {
				return true
			}

			d := NewDebouncer(20 * time.Millisecond)
			unique := make(map[string]bool)
			for i, id := range ids {
				path := fmt.Sprintf("pkg/t%02d.tmpl", id)
				unique[path] = true
				d.addEvent(ChangeEvent{Type: EventType(i % 4), Path: path})
			}

			select {
			case batch := <-d.output:
				if len(batch) != len(unique) {
					return false
				}
				return sort.SliceIsSorted(batch, func(i, j int) bool {
					return batch[i].Path < batch[j].Path
				})
			case <-time.After(2 * time.Second):
				return false
			}
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	// Property: the last event recorded for a path is the one delivered
	properties.Property("latest event per path wins", prop.ForAll(
		func(types []int) bool {
			if len(types) == 0 {
				return true
			}

			d := NewDebouncer(20 * time.Millisecond)
			for _, typ := range types {
				d.addEvent(ChangeEvent{Type: EventType(typ), Path: "packages.json"})
			}

			select {
			case batch := <-d.output:
				return len(batch) == 1 && batch[0].Type == EventType(types[len(types)-1])
			case <-time.After(2 * time.Second):
				return false
			}
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
