package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RotatingWriter appends to a log file and moves it into an old/ directory
// next to it once it grows past maxSize. A background check reopens the
// path when the file was moved or deleted by someone else.
type RotatingWriter struct {
	path    string
	maxSize int64

	mu   sync.Mutex
	f    *os.File
	size int64

	stop chan struct{}
	done chan struct{}
}

// NewRotatingWriter opens path for appending. If the existing file is already
// at or above maxSize it is archived first.
func NewRotatingWriter(path string, maxSize int64, verifyInterval time.Duration) (*RotatingWriter, error) {
	w := &RotatingWriter{
		path:    path,
		maxSize: maxSize,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if err := w.open(); err != nil {
		return nil, err
	}
	if w.maxSize > 0 && w.size >= w.maxSize {
		if err := w.rotate(); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	go w.watch(verifyInterval)
	return w, nil
}

// Write implements io.Writer
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	if w.maxSize > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// Close stops the background check and closes the file
func (w *RotatingWriter) Close() error {
	close(w.stop)
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) watch(interval time.Duration) {
	defer close(w.done)
	if interval <= 0 {
		<-w.stop
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			if !w.stillOpen() {
				w.reopen()
			}
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}

// open must be called with mu held (or before the writer is shared)
func (w *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.f = f
	w.size = fi.Size()
	return nil
}

// rotate archives the current file as old/<base>.YYYYMMDD-HHMMSS and starts
// a fresh one
func (w *RotatingWriter) rotate() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}

	oldDir := filepath.Join(filepath.Dir(w.path), "old")
	if err := os.MkdirAll(oldDir, 0755); err != nil {
		return fmt.Errorf("creating old/ directory: %w", err)
	}
	archive := filepath.Join(oldDir, fmt.Sprintf("%s.%s", filepath.Base(w.path), time.Now().Format("20060102-150405")))
	_ = os.Rename(w.path, archive)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating new log file: %w", err)
	}
	w.f = f
	w.size = 0
	return nil
}

func (w *RotatingWriter) stillOpen() bool {
	if w.f == nil {
		return false
	}
	onDisk, err := os.Lstat(w.path)
	if err != nil {
		return false
	}
	held, err := w.f.Stat()
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

func (w *RotatingWriter) reopen() {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	_ = w.open()
}
