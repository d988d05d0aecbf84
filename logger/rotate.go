package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// timeRotateWriter rotates the underlying log file every `interval` minutes
// and prunes rotated files older than `backups` hours.
type timeRotateWriter struct {
	mutex    sync.Mutex
	path     string
	interval time.Duration
	backups  int
	file     *os.File
	nextTime time.Time
}

func newTimeRotateWriter(path string, interval int, backups int) (*timeRotateWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}

	w := &timeRotateWriter{
		path:     path,
		interval: time.Duration(interval) * time.Minute,
		backups:  backups,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.nextTime = time.Now().Add(w.interval)

	return w, nil
}

func (w *timeRotateWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}

func (w *timeRotateWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if time.Now().After(w.nextTime) {
		if err := w.rotate(); err != nil {
			return 0, err
		}
		w.nextTime = time.Now().Add(w.interval)
	}

	return w.file.Write(p)
}

func (w *timeRotateWriter) rotate() error {
	w.file.Close()

	backup := fmt.Sprintf("%s.%s", w.path, time.Now().Format("20060102150405"))
	if err := os.Rename(w.path, backup); err != nil && !os.IsNotExist(err) {
		return err
	}
	w.pruneBackups()

	return w.open()
}

// pruneBackups drops rotated files exceeding the retention window
func (w *timeRotateWriter) pruneBackups() {
	pattern := w.path + ".*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}

	deadline := time.Now().Add(-time.Duration(w.backups) * time.Hour)
	sort.Strings(matches)
	for _, name := range matches {
		if strings.HasSuffix(name, ".wf") {
			continue
		}
		info, err := os.Stat(name)
		if err != nil {
			continue
		}
		if info.ModTime().Before(deadline) {
			os.Remove(name)
		}
	}
}
