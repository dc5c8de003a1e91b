// Package dbfs wires the call handler, its real-filesystem collaborator,
// telemetry, and the directory watcher into the single entry point the
// injection glue (platform-specific, outside this module's scope) hands
// every intercepted host file call to.
package dbfs

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/dbfsio/dbfs/internal/callhandler"
	"github.com/dbfsio/dbfs/internal/config"
	"github.com/dbfsio/dbfs/internal/dirwatch"
	"github.com/dbfsio/dbfs/internal/realfs"
	"github.com/dbfsio/dbfs/internal/telemetry"
	"github.com/dbfsio/dbfs/internal/vfs"
)

// Engine bundles a ready-to-use OSCallHandler with the watcher that keeps
// its cache honest against directories removed outside the process.
type Engine struct {
	vfs.OSCallHandler
	handler *callhandler.Handler
	watch   *dirwatch.Watcher
	log     zerolog.Logger
}

// New builds an Engine from the environment (see config.Load), logging to
// stderr at info level. Call Close at process teardown.
func New() (*Engine, error) {
	return NewWithOptions(config.Load())
}

// NewWithOptions builds an Engine from explicit options, for callers that
// don't want config.Load's environment/.env lookup (tests, embedders with
// their own configuration story).
func NewWithOptions(opts config.Options) (*Engine, error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	rec := telemetry.NewRecorder(log, opts.TelemetryRingSize)

	h := callhandler.New(realfs.New(), opts, rec)

	watch, err := dirwatch.New(h, log)
	if err != nil {
		return nil, err
	}
	h.OnDirOpened(watch.Add)

	return &Engine{OSCallHandler: h, handler: h, watch: watch, log: log}, nil
}

// Close stops the directory watcher and closes every SaveDB the engine
// currently holds.
func (e *Engine) Close() error {
	err := e.watch.Close()
	e.handler.Shutdown()
	return err
}
