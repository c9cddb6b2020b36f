package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const fileFormatVersion = 1

// fileDocument is the on-disk layout. The last change travels with the data
// so watchers in other processes can tell who wrote it and what changed.
type fileDocument struct {
	Version int               `json:"version"`
	Writer  string            `json:"writer"`
	Change  Change            `json:"change"`
	Values  map[string]string `json:"values"`
}

// FileStore keeps the session in a JSON file. Several console processes
// pointed at the same file share one session; each sees the others' writes
// through fsnotify.
//
// Writes replace the file atomically (write temp, rename). Concurrent writers
// in different processes are last-writer-wins.
type FileStore struct {
	path   string
	origin string
	logger *zap.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// NewFileStore creates the parent directory if needed and returns a handle on
// path. The file itself is created on first write.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &FileStore{
		path:   abs,
		origin: uuid.NewString(),
		logger: logger,
	}, nil
}

// Path returns the absolute path of the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Origin implements [Store].
func (f *FileStore) Origin() string {
	return f.origin
}

// Get implements [Store].
func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if f.isClosed() {
		return "", false, ErrClosed
	}
	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

// Snapshot implements [Store].
func (f *FileStore) Snapshot(_ context.Context) (Snapshot, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return Snapshot(doc.Values), nil
}

// SetMany implements [Store].
func (f *FileStore) SetMany(_ context.Context, values map[string]string) error {
	if f.isClosed() {
		return ErrClosed
	}
	if len(values) == 0 {
		return nil
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for k, v := range values {
		doc.Values[k] = v
		keys = append(keys, k)
	}
	return f.write(doc, Change{ID: uuid.NewString(), Origin: f.origin, Op: OpSet, Keys: sortedKeys(keys)})
}

// Delete implements [Store].
func (f *FileStore) Delete(_ context.Context, keys ...string) error {
	if f.isClosed() {
		return ErrClosed
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	removed := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := doc.Values[k]; ok {
			delete(doc.Values, k)
			removed = append(removed, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	return f.write(doc, Change{ID: uuid.NewString(), Origin: f.origin, Op: OpDelete, Keys: sortedKeys(removed)})
}

// read returns an empty document when the file does not exist.
func (f *FileStore) read() (*fileDocument, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileDocument{Version: fileFormatVersion, Values: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file: %v", ErrUnavailable, err)
	}
	if doc.Version != fileFormatVersion {
		return nil, fmt.Errorf("%w: unsupported session file version %d", ErrUnavailable, doc.Version)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return &doc, nil
}

func (f *FileStore) write(doc *fileDocument, c Change) error {
	doc.Version = fileFormatVersion
	doc.Writer = f.origin
	doc.Change = c

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Subscribe implements [Store]. It watches the parent directory so atomic
// replacements and removal of the file are both observed.
func (f *FileStore) Subscribe(_ context.Context) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	var sub *Subscription
	sub = newSubscription(func() {
		close(done)
		_ = w.Close()
		<-stopped

		f.mu.Lock()
		f.subs = removeSubscription(f.subs, sub)
		f.mu.Unlock()
	})

	go f.watch(w, sub, done, stopped)

	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *FileStore) watch(w *fsnotify.Watcher, sub *Subscription, done, stopped chan struct{}) {
	defer close(stopped)

	var lastID string
	for {
		select {
		case <-done:
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			c, ok := f.changeFromDisk()
			if !ok || c.ID == lastID || c.Origin == f.origin {
				continue
			}
			lastID = c.ID
			sub.deliver(c)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.logger.Warn("store: file watch error", zap.String("path", f.path), zap.Error(err))
		}
	}
}

// changeFromDisk turns the current file state into a [Change]. A missing
// file is reported as an external reset.
func (f *FileStore) changeFromDisk() (Change, bool) {
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return Change{ID: uuid.NewString(), Op: OpReset}, true
	}

	doc, err := f.read()
	if err != nil {
		// Partially written files from non-atomic external editors land
		// here; the next event will carry the final content.
		f.logger.Debug("store: unreadable session file", zap.String("path", f.path), zap.Error(err))
		return Change{}, false
	}
	if doc.Change.ID == "" {
		return Change{ID: uuid.NewString(), Op: OpReset}, true
	}
	c := doc.Change
	c.Origin = doc.Writer
	return c, true
}

// Close implements [Store].
func (f *FileStore) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

func (f *FileStore) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
