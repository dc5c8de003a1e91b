// Package config holds the small set of engine-wide tunables the call
// handler needs, loadable from the environment with optional .env support
// for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options are the engine-wide tunables. Zero values are replaced with
// Defaults() by Load.
type Options struct {
	// CacheCapacity bounds the number of idle SaveDB instances (those with
	// no open handle) the call handler keeps open; SaveDBs with open handles
	// are not counted against it (see the bounded-cache addition in
	// SPEC_FULL.md §3).
	CacheCapacity int

	// TelemetryRingSize bounds the number of recent call events kept for
	// diagnostics; 0 disables the ring buffer (log-only).
	TelemetryRingSize int

	// ReapEmptyDirs controls whether a SaveDB's on-closed hook removes its
	// containing directory from the real filesystem when left empty.
	ReapEmptyDirs bool
}

// Defaults returns the engine's out-of-the-box tunables.
func Defaults() Options {
	return Options{
		CacheCapacity:     256,
		TelemetryRingSize: 1000,
		ReapEmptyDirs:     true,
	}
}

// Load builds Options from the environment, starting from Defaults and
// overriding with DBFS_CACHE_CAPACITY, DBFS_TELEMETRY_RING_SIZE, and
// DBFS_REAP_EMPTY_DIRS if present. If a .env file exists in the working
// directory it is loaded first. A missing .env is not an error; this is
// local dev convenience, not production deployment.
func Load() Options {
	_ = godotenv.Load()

	opts := Defaults()

	if v, ok := os.LookupEnv("DBFS_CACHE_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.CacheCapacity = n
		}
	}
	if v, ok := os.LookupEnv("DBFS_TELEMETRY_RING_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.TelemetryRingSize = n
		}
	}
	if v, ok := os.LookupEnv("DBFS_REAP_EMPTY_DIRS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.ReapEmptyDirs = b
		}
	}

	return opts
}
