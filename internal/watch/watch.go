package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 200 * time.Millisecond

// Extension is the file extension watched inside directories.
const Extension = ".hpl"

type config struct {
	debounce time.Duration
	log      logrus.FieldLogger
}

// Option configures Watch.
type Option func(*config)

// WithDebounce sets the quiet period. Non-positive values keep the
// default.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLogger sets the logger for watch events and errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) { c.log = l }
}

// Watch calls onChange with the sorted absolute paths of the files that
// changed, once per burst of events. Paths may name files or
// directories; inside a directory only .hpl files count. Files are
// watched through their parent directory so that editors that replace
// files on save are still seen.
//
// Watch blocks until ctx is cancelled and then returns nil.
func Watch(ctx context.Context, paths []string, onChange func(changed []string), opts ...Option) error {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	cfg := config{debounce: DefaultDebounce, log: quiet}
	for _, opt := range opts {
		opt(&cfg)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	t, err := newTargets(paths)
	if err != nil {
		return err
	}
	for _, dir := range t.watchDirs() {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		cfg.log.WithField("dir", dir).Debug("watching")
	}

	pending := map[string]struct{}{}
	timer := time.NewTimer(cfg.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, relevant := t.match(ev)
			if !relevant {
				continue
			}
			cfg.log.WithFields(logrus.Fields{"file": name, "op": ev.Op.String()}).Debug("change")
			pending[name] = struct{}{}
			timer.Reset(cfg.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			slices.Sort(changed)
			clear(pending)
			cfg.log.WithField("files", len(changed)).Info("files changed")
			onChange(changed)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			cfg.log.WithError(err).Warn("watch error")
		}
	}
}

// targets holds the explicitly named files and the directories whose
// .hpl files are watched.
type targets struct {
	files map[string]bool
	dirs  map[string]bool
}

func newTargets(paths []string) (*targets, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	t := &targets{files: map[string]bool{}, dirs: map[string]bool{}}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			t.dirs[abs] = true
		} else {
			t.files[abs] = true
		}
	}
	return t, nil
}

func (t *targets) watchDirs() []string {
	seen := map[string]bool{}
	for d := range t.dirs {
		seen[d] = true
	}
	for f := range t.files {
		seen[filepath.Dir(f)] = true
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

const changeOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// match reports whether ev concerns a watched file, and its absolute path.
func (t *targets) match(ev fsnotify.Event) (string, bool) {
	if ev.Op&changeOps == 0 {
		return "", false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return "", false
	}
	if t.files[name] {
		return name, true
	}
	return name, t.dirs[filepath.Dir(name)] && filepath.Ext(name) == Extension
}
