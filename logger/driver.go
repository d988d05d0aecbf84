package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inconshreveable/log15"
)

// log15Driver adapts a log15 logger to the LogDriver constraint.
// log15 has no Fatal level, so Fatal maps onto Crit.
type log15Driver struct {
	log log15.Logger
}

func (d *log15Driver) Fatal(msg string, ctx ...interface{}) {
	d.log.Crit(msg, ctx...)
}

func (d *log15Driver) Error(msg string, ctx ...interface{}) {
	d.log.Error(msg, ctx...)
}

func (d *log15Driver) Warn(msg string, ctx ...interface{}) {
	d.log.Warn(msg, ctx...)
}

func (d *log15Driver) Info(msg string, ctx ...interface{}) {
	d.log.Info(msg, ctx...)
}

func (d *log15Driver) Debug(msg string, ctx ...interface{}) {
	d.log.Debug(msg, ctx...)
}

// OpenLog create and open log stream using LogConf
func OpenLog(lc *LogConf, logDir string) (LogDriver, error) {
	infoFile := filepath.Join(logDir, lc.Filename+".log")
	wfFile := filepath.Join(logDir, lc.Filename+".log.wf")
	os.MkdirAll(logDir, os.ModePerm)

	var lfmt log15.Format
	switch lc.Fmt {
	case "json":
		lfmt = log15.JsonFormat()
	case "logfmt":
		lfmt = log15.LogfmtFormat()
	default:
		lfmt = log15.LogfmtFormat()
	}

	xlog := log15.New("module", lc.Module)
	lvLevel, err := log15.LvlFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level error.err:%v", err)
	}

	// init normal and warn/fault log file handler, the rotate handler is
	// only valid if `RotateInterval` and `RotateBackups` greater than 0
	var nmHandler, wfHandler log15.Handler
	if lc.RotateInterval > 0 && lc.RotateBackups > 0 {
		nmHandler = mustBufferFileHandler(
			infoFile, lfmt, lc.RotateInterval, lc.RotateBackups)
		wfHandler = mustBufferFileHandler(
			wfFile, lfmt, lc.RotateInterval, lc.RotateBackups)
	} else {
		nmHandler = log15.Must.FileHandler(infoFile, lfmt)
		wfHandler = log15.Must.FileHandler(wfFile, lfmt)
	}

	if lc.Async {
		nmHandler = log15.BufferedHandler(lc.BufSize, nmHandler)
		wfHandler = log15.BufferedHandler(lc.BufSize, wfHandler)
	}

	// prints log level between `lvLevel` to Info to base log
	nmfileh := log15.LvlFilterHandler(lvLevel, nmHandler)
	// prints log level greater or equal to Warn to wf log
	wffileh := log15.LvlFilterHandler(log15.LvlWarn, wfHandler)

	var lhd log15.Handler
	if lc.Console {
		hstd := log15.StreamHandler(os.Stderr, lfmt)
		lhd = log15.MultiHandler(hstd, nmfileh, wffileh)
	} else {
		lhd = log15.MultiHandler(nmfileh, wffileh)
	}
	xlog.SetHandler(lhd)

	return &log15Driver{log: xlog}, nil
}
