//go:build unix

package benchmark

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"storebench/logging"
)

// SetMaxResources raises the open file limit to its hard maximum so wide
// segment fan-outs do not run out of sockets, and lifts the Go thread cap on
// Linux hosts that allow more than the runtime default.
func SetMaxResources() error {
	const threadLimit = 10000
	logger := logging.Component("resources")

	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return fmt.Errorf("get rlimit: %w", err)
	}
	if rLimit.Cur < rLimit.Max {
		prev := rLimit.Cur
		rLimit.Cur = rLimit.Max
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
			return fmt.Errorf("set open file limit: %w", err)
		}
		logger.Debug().Uint64("from", uint64(prev)).Uint64("to", uint64(rLimit.Cur)).Msg("open file limit raised")
	}

	threads, err := readLinuxMaxThreads()
	if err != nil {
		logger.Debug().Err(err).Msg("thread limit unchanged")
		return nil
	}
	if maxThreads := int(threads) * 90 / 100; maxThreads > threadLimit {
		debug.SetMaxThreads(maxThreads)
		logger.Debug().Int("max_threads", maxThreads).Msg("thread limit raised")
	}
	return nil
}

func readLinuxMaxThreads() (uint32, error) {
	data, err := os.ReadFile("/proc/sys/kernel/threads-max")
	if err != nil {
		return 0, err
	}
	threads, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse threads-max: %w", err)
	}
	return uint32(threads), nil
}
