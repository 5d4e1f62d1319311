package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// AutomationDispatcher is the subset of pkg/automation's scheduler this
// package drives on a filesystem event (spec.md §4.9: "call
// enqueue_automation(service, automation) and then
// process_pending_automations()").
type AutomationDispatcher interface {
	EnqueueAutomation(service types.ServiceId, automation types.Automation, now time.Time)
	ProcessPendingAutomations(now time.Time)
}

type binding struct {
	service    types.ServiceId
	automation types.Automation
}

// Watcher maintains one recursive fsnotify watch per (service, FileModified
// trigger) root directory, keyed by whichever profile is currently active
// (spec.md §4.9). It is not safe for concurrent Rebuild calls, but event
// delivery runs on its own goroutine.
type Watcher struct {
	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	stopCh chan struct{}

	dispatcher AutomationDispatcher
	logger     zerolog.Logger

	// dirToRoot maps every watched directory (including each root itself)
	// to the root path it was registered under, so an event on a deeply
	// nested file can be traced back to the (service, automation) binding.
	dirToRoot map[string]string
	bindings  map[string]binding
}

// New returns a Watcher with no active watches. Call Rebuild to populate it
// for the active profile, then Start to begin delivering events.
func New(dispatcher AutomationDispatcher, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:        fsw,
		stopCh:     make(chan struct{}),
		dispatcher: dispatcher,
		logger:     logger,
		dirToRoot:  make(map[string]string),
		bindings:   make(map[string]binding),
	}, nil
}

// Start begins the event-delivery loop.
func (w *Watcher) Start() {
	go w.run()
}

// Stop terminates the event loop and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("file watcher error")
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// A newly created directory under a watched root must itself be
	// watched for the recursive contract to hold for files created inside
	// it later.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			root, ok := w.resolveRootLocked(filepath.Dir(event.Name))
			w.mu.Unlock()
			if ok {
				if err := w.addTreeLocked(event.Name, root); err != nil {
					w.logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new subdirectory")
				}
			}
		}
	}

	w.mu.Lock()
	root, ok := w.resolveRootLocked(event.Name)
	b := w.bindings[root]
	w.mu.Unlock()
	if !ok {
		return
	}

	now := time.Now()
	w.dispatcher.EnqueueAutomation(b.service, b.automation, now)
	w.dispatcher.ProcessPendingAutomations(now)
}

// resolveRootLocked walks up from path until it finds a watched directory,
// returning the root it belongs to. Callers must hold w.mu.
func (w *Watcher) resolveRootLocked(path string) (string, bool) {
	path = filepath.Clean(path)
	for {
		if root, ok := w.dirToRoot[path]; ok {
			return root, true
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", false
		}
		path = parent
	}
}

// Rebuild drops every existing watch and re-registers one recursive watch
// per (service, FileModified trigger) root in the given profile (spec.md
// §4.9: "On profile change: drop all watchers, rebuild"). A nil profile (or
// one with no services) simply clears everything — spec.md's "On the active
// profile being cleared: drop all watchers."
func (w *Watcher) Rebuild(profile *types.Profile) {
	w.mu.Lock()
	for dir := range w.dirToRoot {
		_ = w.fsw.Remove(dir)
	}
	w.dirToRoot = make(map[string]string)
	w.bindings = make(map[string]binding)
	w.mu.Unlock()

	if profile == nil {
		return
	}

	for _, service := range profile.Services {
		for _, automation := range allAutomations(service) {
			if !automation.Enabled {
				continue
			}
			for _, trigger := range automation.Triggers {
				fm, ok := trigger.(types.FileModifiedTrigger)
				if !ok {
					continue
				}
				for _, path := range fm.Paths {
					root := filepath.Join(service.Workdir, path)
					w.mu.Lock()
					w.bindings[root] = binding{service: service.Id, automation: automation}
					err := w.addTreeLocked(root, root)
					w.mu.Unlock()
					if err != nil {
						w.logger.Warn().Err(err).Str("path", root).Msg("failed to watch automation trigger path")
					}
				}
			}
		}
	}
}

// addTreeLocked registers path and, if it is a directory, every descendant
// directory, all mapped back to root. Callers must hold w.mu.
func (w *Watcher) addTreeLocked(path, root string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort: skip unreadable subtrees
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return nil //nolint:nilerr
		}
		w.dirToRoot[filepath.Clean(p)] = root
		return nil
	})
}

func allAutomations(service types.Service) []types.Automation {
	return service.Automations
}
