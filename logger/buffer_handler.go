package logger

import (
	"bufio"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
)

func mustBufferFileHandler(path string, fmtr log15.Format, interval int, backupCount int) log15.Handler {
	h, err := bufferFileHandler(path, fmtr, interval, backupCount)
	if err != nil {
		panic(err)
	}
	return h
}

type syncWriter struct {
	mutex sync.Mutex
	w     *bufio.Writer
}

func newSyncWriter(w *bufio.Writer) *syncWriter {
	return &syncWriter{
		w: w,
	}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mutex.Lock()
	n, err := s.w.Write(p)
	s.mutex.Unlock()
	return n, err
}

func (s *syncWriter) Flush() {
	s.mutex.Lock()
	s.w.Flush()
	s.mutex.Unlock()
}

func bufferFileHandler(path string, fmtr log15.Format, interval int, backupCount int) (log15.Handler, error) {
	f, err := newTimeRotateWriter(path, interval, backupCount)
	if err != nil {
		return nil, err
	}
	w := newSyncWriter(bufio.NewWriter(f))

	go func() {
		ticker := time.NewTicker(time.Second)
		for range ticker.C {
			w.Flush()
		}
	}()

	h := log15.FuncHandler(func(r *log15.Record) error {
		buf := fmtr.Format(r)
		_, err = w.Write(buf)
		return err
	})
	return h, nil
}
