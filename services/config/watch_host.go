//go:build !tinygo

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"hsvled-go/errcode"
	"hsvled-go/x/logx"
)

// reloadDelay collapses an editor's burst of writes into one reload.
const reloadDelay = 100 * time.Millisecond

// Watch reloads path after it changes and hands each valid result to
// apply. Invalid files are logged and ignored. It returns when ctx ends.
// apply runs on a timer goroutine.
func Watch(ctx context.Context, path string, log logx.Logger, apply func(Config)) error {
	if log == nil {
		log = logx.Nop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "config.watch", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errcode.Wrap(errcode.Error, "config.watch", err)
	}
	defer w.Close()
	// Watch the directory; editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "config.watch", err)
	}

	reload := debounce.New(reloadDelay)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reload(func() {
				cfg, err := Load(abs)
				if err != nil {
					log.Warn("config reload rejected", "path", abs, "err", err.Error())
					return
				}
				log.Info("config reloaded", "path", abs)
				apply(cfg)
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watch", "err", err.Error())
		}
	}
}
