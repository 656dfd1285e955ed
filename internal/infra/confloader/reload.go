package confloader

import (
	"log/slog"

	"github.com/yndnr/kvsession/internal/server/config"
	"github.com/yndnr/kvsession/internal/telemetry/logger"
)

// ApplyFunc receives a freshly loaded and verified configuration.
type ApplyFunc func(*config.ServerConfig)

// ApplyLogLevel updates the process log level from cfg.
func ApplyLogLevel(cfg *config.ServerConfig) {
	logger.SetLevel(cfg.Log.Level)
}

// WatchServer reloads the server configuration whenever the loader's file
// changes and passes valid results to apply. Invalid files are logged
// and ignored. The returned watcher is already running.
func WatchServer(l *Loader, log *slog.Logger, apply ApplyFunc) (*Watcher, error) {
	w, err := NewWatcher(WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(l.FilePath()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := l.LoadServer()
		if err != nil {
			log.Warn("configuration reload rejected",
				"file", path,
				"error", err,
			)
			return
		}
		apply(cfg)
		log.Info("configuration reloaded",
			"file", path,
			"log_level", cfg.Log.Level,
		)
	})

	w.StartAsync()
	return w, nil
}
