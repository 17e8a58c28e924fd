package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetOutputJSON(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	SetOutput(&buf, true)
	logger := Component("scheduler")
	logger.Info().Int("capacity", 4).Msg("started")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["component"] != "scheduler" || line["message"] != "started" {
		t.Errorf("unexpected line %v", line)
	}
	if line["capacity"] != float64(4) {
		t.Errorf("capacity = %v", line["capacity"])
	}
}

func TestSetOutputConsole(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	SetOutput(&buf, false)
	log.Info().Str("remote", "bench/data.txt").Msg("removed")

	out := buf.String()
	if !strings.Contains(out, "removed") || !strings.Contains(out, "remote=bench/data.txt") {
		t.Errorf("unexpected console output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("console output should not be coloured: %q", out)
	}
}

func TestInitLevel(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Init(true, true)
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", zerolog.GlobalLevel())
	}
	Init(false, true)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", zerolog.GlobalLevel())
	}
}
