package app

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"

	"yashubustudio/sedefinder/finder"
)

const fyneAppID = "yashubustudio.sedefinder"

// Run loads the configuration and the configured dataset, then starts the
// desktop UI. It returns when the window is closed.
func Run() error {
	cfg, err := finder.LoadConfig("")
	if err != nil {
		return err
	}

	a := fyneapp.NewWithID(fyneAppID)
	logBind := binding.NewString()
	capture := newLogCapture(logBind, 300)
	logger := log.New(io.MultiWriter(os.Stdout, capture), "", log.LstdFlags)

	svc := finder.NewService(cfg, logger)
	if cfg.DatasetPath != "" {
		if err := svc.LoadFile(cfg.DatasetPath); err != nil {
			logger.Printf("Dataset not loaded: %v", err)
		}
	}

	u := buildUI(a, svc, logger, logBind)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Watch.Enabled && svc.Source() != "" {
		w := finder.NewWatcher(svc, svc.Source(), time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, logger)
		w.OnReload = u.onWatchReload
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Printf("Dataset watcher stopped: %v", err)
			}
		}()
	}

	u.w.ShowAndRun()
	u.entities.Stop()
	u.categories.Stop()

	// Remember the last dataset for the next start.
	if src := svc.Source(); src != "" && src != cfg.DatasetPath {
		cfg = svc.Config()
		cfg.DatasetPath = src
		if err := finder.SaveConfig("", cfg); err != nil {
			logger.Printf("Failed to save config: %v", err)
		}
	}
	return nil
}
