/*
Package watch implements the File Watcher (spec.md §4.9): one recursive
fsnotify watch per (service, FileModified trigger) root directory for the
active profile, rebuilt whenever the profile changes.

The event-loop lifecycle (Start/Stop, goroutine over fsnotify's Events and
Errors channels plus a stopCh) is grounded on cuemby-warren/pkg/reconciler's
Start/Stop/stopCh shape. fsnotify has no native recursive mode, so Rebuild
walks each root's subtree registering every directory individually, and the
event handler extends that registration to newly created subdirectories to
keep the recursive contract as the tree grows.
*/
package watch
