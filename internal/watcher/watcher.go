// Package watcher re-runs work when catalog or template files change.
//
// Events from fsnotify pass through the filters, then a Debouncer that
// collapses a burst of changes into one sorted batch per quiet period.
// Handlers receive batches sequentially, so a handler never overlaps with
// itself.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alfariiizi/vpkg-template/internal/logging"
)

// FileWatcher watches directories for file changes with debouncing
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	logger    logging.Logger
	mutex     sync.RWMutex
	stopOnce  sync.Once
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a changed file is relevant
type FileFilter func(path string) bool

// ChangeHandler handles a debounced batch of changes
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// Debouncer groups rapid file changes together
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending map[string]ChangeEvent
	mutex   sync.Mutex
}

// NewDebouncer creates a debouncer that emits after delay of quiet.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make(map[string]ChangeEvent),
	}
}

// NewFileWatcher creates a new file watcher. A nil logger discards output.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if logger == nil {
		logger = logging.NewNopLogger()
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounceDelay),
		filters:   make([]FileFilter, 0),
		handlers:  make([]ChangeHandler, 0),
		logger:    logger.WithComponent("watcher"),
	}

	return fw, nil
}

// AddFilter adds a file filter. An event must pass every filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches a single directory. Watching a file's parent directory
// is how single files such as the catalog are followed across editor
// rename-and-replace saves.
func (fw *FileWatcher) AddPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	return fw.watcher.Add(filepath.Clean(path))
}

// AddRecursive watches root and every directory below it. Symlinked
// directories are not followed.
func (fw *FileWatcher) AddRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("invalid root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid root path: %s is not a directory", root)
	}

	stack := []string{filepath.Clean(root)}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			fw.logger.Warn(context.Background(), err, "Skipping unreadable directory", "path", dir)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() && entry.Type()&fs.ModeSymlink == 0 {
				stack = append(stack, filepath.Join(dir, entry.Name()))
			}
		}
	}

	return nil
}

// WatchedPaths returns the watched directories in sorted order.
func (fw *FileWatcher) WatchedPaths() []string {
	paths := fw.watcher.WatchList()
	sort.Strings(paths)
	return paths
}

// Start starts the file watcher. It returns immediately; the watcher runs
// until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.start(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)

	return nil
}

// Stop stops the file watcher and cleans up resources. It is safe to call
// more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.debouncer.stop()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	info, statErr := os.Stat(event.Name)

	// New directories are watched so templates added under them are seen.
	if statErr == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := fw.AddRecursive(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "Cannot watch new directory", "path", event.Name)
			}
		}
		return
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	changeEvent := ChangeEvent{
		Type: eventType(event.Op),
		Path: event.Name,
	}
	if statErr == nil {
		changeEvent.ModTime = info.ModTime()
		changeEvent.Size = info.Size()
	}

	fw.logger.Debug(ctx, "File changed", "path", event.Name, "type", changeEvent.Type.String())

	select {
	case fw.debouncer.events <- changeEvent:
	default:
		fw.logger.Warn(ctx, nil, "Dropping file event, debouncer is full", "path", event.Name)
	}
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create != 0:
		return EventTypeCreated
	case op&fsnotify.Write != 0:
		return EventTypeModified
	case op&fsnotify.Remove != 0:
		return EventTypeDeleted
	case op&fsnotify.Rename != 0:
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.logger.Error(ctx, err, "File watcher handler failed", "events", len(events))
				}
			}
		}
	}
}

func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.stop()
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// The latest event for a path wins.
	d.pending[event.Path] = event

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	events := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Path < events[j].Path
	})

	select {
	case d.output <- events:
	default:
		// A batch is still queued; the next flush carries these paths.
		return
	}

	d.pending = make(map[string]ChangeEvent)
}

// SuffixFilter accepts files whose name ends in one of the suffixes.
func SuffixFilter(suffixes ...string) FileFilter {
	return func(path string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(path, s) {
				return true
			}
		}
		return false
	}
}

// PathFilter accepts exactly the given files.
func PathFilter(paths ...string) FileFilter {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = true
		}
	}
	return func(path string) bool {
		abs, err := filepath.Abs(path)
		return err == nil && set[abs]
	}
}

// AnyFilter accepts a path accepted by at least one of filters.
func AnyFilter(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f(path) {
				return true
			}
		}
		return false
	}
}

// NoScratchFilter rejects editor backup and swap files and anything under
// a .git directory.
func NoScratchFilter(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return false
		}
	}
	return true
}
