//go:build windows

package benchmark

import (
	"runtime/debug"

	"storebench/logging"
)

// SetMaxResources only raises the Go thread cap; Windows has no per-process
// open file limit to lift.
func SetMaxResources() error {
	const maxThreads = 12000
	debug.SetMaxThreads(maxThreads)
	logging.Component("resources").Debug().Int("max_threads", maxThreads).Msg("thread limit raised")
	return nil
}
