// Command streetlight-replay runs the node's smoothing, classification,
// and brightness arithmetic offline, one sample per invocation. Derived
// state persists in a per-device record so a shell loop can replay a
// whole trace; each process call prints one JSON line.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"github.com/smartcity/streetlight/internal/replay"
)

const usage = "usage: streetlight-replay [flags] process <raw> [motion 0|1] | reset"

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelWarn,
	}))

	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "streetlight-replay: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, log *slog.Logger) error {
	fs := pflag.NewFlagSet("streetlight-replay", pflag.ContinueOnError)
	device := fs.String("device", "1", "Device identifier naming the state record")
	stateDir := fs.String("state-dir", ".", "Directory holding per-device state records")
	nightEnter := fs.Int("night-enter", 800, "Smoothed value above which night begins")
	dayExit := fs.Int("day-exit", 600, "Smoothed value below which day begins")
	duration := fs.Int("duration", 30, "Lights-on window after motion, in seconds")
	power := fs.Float64("power", -1, "Measured lamp watts for anomaly probing (negative derives from the duty model)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *nightEnter <= *dayExit {
		return fmt.Errorf("night-enter (%d) must be greater than day-exit (%d)", *nightEnter, *dayExit)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New(usage)
	}

	engine := replay.NewEngine(replay.NewFileStore(*stateDir, log), *nightEnter, *dayExit, *duration, *power)

	switch rest[0] {
	case "process":
		if len(rest) < 2 || len(rest) > 3 {
			return errors.New(usage)
		}
		raw, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("raw value %q is not a number", rest[1])
		}
		motion := false
		if len(rest) == 3 {
			switch rest[2] {
			case "1":
				motion = true
			case "0":
			default:
				return fmt.Errorf("motion flag %q must be 0 or 1", rest[2])
			}
		}

		result, err := engine.Process(*device, raw, motion)
		if err != nil {
			return err
		}
		out, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(out))
		return nil

	case "reset":
		if len(rest) != 1 {
			return errors.New(usage)
		}
		return engine.Reset(*device)

	default:
		return fmt.Errorf("unknown command %q (want process or reset)", rest[0])
	}
}
