package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-pvs/dsp/pvs/effect"
)

// paramFlag collects repeated name=value flags. Values that parse as numbers
// are numeric parameters, everything else is a string parameter.
type paramFlag struct {
	effect.Params
}

func (f *paramFlag) String() string {
	var parts []string
	for k, v := range f.Num {
		parts = append(parts, k+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}

	for k, v := range f.Str {
		parts = append(parts, k+"="+v)
	}

	return strings.Join(parts, ",")
}

func (f *paramFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)

	if !ok || name == "" {
		return fmt.Errorf("parameter %q is not name=value", s)
	}

	value = strings.TrimSpace(value)

	if v, err := strconv.ParseFloat(value, 64); err == nil {
		if f.Num == nil {
			f.Num = make(map[string]float64)
		}

		f.Num[name] = v

		return nil
	}

	if f.Str == nil {
		f.Str = make(map[string]string)
	}

	f.Str[name] = value

	return nil
}

// merge returns base overridden by the flag values.
func (f *paramFlag) merge(base effect.Params) effect.Params {
	out := effect.Params{
		Num: maps.Clone(base.Num),
		Str: maps.Clone(base.Str),
	}

	if len(f.Num) > 0 && out.Num == nil {
		out.Num = make(map[string]float64, len(f.Num))
	}

	if len(f.Str) > 0 && out.Str == nil {
		out.Str = make(map[string]string, len(f.Str))
	}

	maps.Copy(out.Num, f.Num)
	maps.Copy(out.Str, f.Str)

	return out
}

// loadParams reads a JSON parameter file.
func loadParams(path string) (effect.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return effect.Params{}, err
	}

	var p effect.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return effect.Params{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return p, nil
}

// watchParams reapplies the parameter file to target whenever it is written
// or replaced, until ctx is done. Invalid files are logged and skipped.
func watchParams(ctx context.Context, path string, target effect.Configurable, log *logrus.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path = filepath.Clean(path)

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			applyParams(path, target, log)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.WithError(err).Warn("parameter watch")
		}
	}
}

func applyParams(path string, target effect.Configurable, log *logrus.Logger) {
	entry := log.WithField("file", path)

	p, err := loadParams(path)
	if err == nil {
		err = target.Configure(p)
	}

	if err != nil {
		entry.WithError(err).Warn("parameters rejected")
		return
	}

	entry.WithFields(logrus.Fields{
		"num": p.Num,
		"str": p.Str,
	}).Info("parameters applied")
}
