package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a FileWatcher.
type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

// changeSet collects changed paths until they are delivered. While paused,
// paths keep accumulating and nothing is delivered.
type changeSet struct {
	mu     sync.Mutex
	paths  map[string]struct{}
	paused bool
}

func (c *changeSet) add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[path] = struct{}{}
}

func (c *changeSet) setPaused(paused bool) (was bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	was, c.paused = c.paused, paused
	return was
}

// take empties the set and returns its paths sorted. It returns nil while
// paused or when nothing changed.
func (c *changeSet) take() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || len(c.paths) == 0 {
		return nil
	}
	paths := make([]string, 0, len(c.paths))
	for p := range c.paths {
		paths = append(paths, p)
	}
	c.paths = make(map[string]struct{})
	sort.Strings(paths)
	return paths
}

// fileWatcher implements FileWatcher for one source file and a template tree.
type fileWatcher struct {
	fs          *fsnotify.Watcher
	source      string // absolute; watched through its directory
	templateDir string // absolute, empty when only the source is watched
	debounce    time.Duration
	logger      *zap.Logger

	changes  changeSet
	callback func(files []string)

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher for one source file and a template
// directory. Only changes to the source file itself or to anything below
// templateDir are reported. An empty templateDir watches the source alone.
func NewFileWatcher(source, templateDir string, opts Options) (FileWatcher, error) {
	source, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(source); err != nil {
		return nil, err
	}
	if templateDir != "" {
		if templateDir, err = filepath.Abs(templateDir); err != nil {
			return nil, err
		}
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		fs:          fs,
		source:      source,
		templateDir: templateDir,
		debounce:    opts.Debounce,
		logger:      opts.Logger,
		changes:     changeSet{paths: make(map[string]struct{})},
		done:        make(chan struct{}),
	}
	if fw.debounce <= 0 {
		fw.debounce = DefaultDebounce
	}
	if fw.logger == nil {
		fw.logger = zap.NewNop()
	}

	// Editors often replace files instead of writing them, so the source is
	// watched through its directory.
	if err := fs.Add(filepath.Dir(source)); err != nil {
		fs.Close()
		return nil, err
	}
	if templateDir != "" {
		if err := fw.watchTree(templateDir); err != nil {
			fs.Close()
			return nil, err
		}
	}

	return fw, nil
}

// Start begins watching. The callback runs on the watcher's goroutine with
// the sorted paths changed during one debounce period.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	fw.callback = callback
	ctx, fw.cancel = context.WithCancel(ctx)

	go fw.loop(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine. It is safe to call
// more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.done
		}
		err = fw.fs.Close()
	})
	return err
}

// Pause holds back callbacks; changes keep accumulating.
func (fw *fileWatcher) Pause() {
	fw.changes.setPaused(true)
}

// Resume delivers changes accumulated while paused, if any.
func (fw *fileWatcher) Resume() {
	if fw.changes.setPaused(false) {
		fw.deliver()
	}
}

// loop owns the debounce timer: every relevant event restarts it and the
// accumulated changes are delivered when it fires.
func (fw *fileWatcher) loop(ctx context.Context) {
	defer close(fw.done)

	timer := time.NewTimer(fw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.fs.Events:
			if !ok {
				return
			}
			fw.trackNewDir(event)
			if !fw.relevant(event) {
				continue
			}
			fw.changes.add(event.Name)
			timer.Reset(fw.debounce)

		case <-timer.C:
			fw.deliver()

		case err, ok := <-fw.fs.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (fw *fileWatcher) deliver() {
	files := fw.changes.take()
	if files == nil {
		return
	}
	fw.logger.Debug("Detected changes", zap.Strings("files", files))
	fw.callback(files)
}

// trackNewDir starts watching template sub-directories created after Start.
func (fw *fileWatcher) trackNewDir(event fsnotify.Event) {
	if event.Op&fsnotify.Create == 0 || !fw.inTemplateDir(event.Name) {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if err := fw.watchTree(event.Name); err != nil {
			fw.logger.Warn("Failed to watch new directory",
				zap.String("path", event.Name), zap.Error(err))
		}
	}
}

// relevant keeps write, create, remove and rename events on the source file
// or inside the template directory.
func (fw *fileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return event.Name == fw.source || fw.inTemplateDir(event.Name)
}

func (fw *fileWatcher) inTemplateDir(path string) bool {
	return fw.templateDir != "" && strings.HasPrefix(path, fw.templateDir+string(os.PathSeparator))
}

// watchTree adds root and every directory below it.
func (fw *fileWatcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			fw.logger.Warn("Error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.fs.Add(path); err != nil {
			fw.logger.Warn("Failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}
