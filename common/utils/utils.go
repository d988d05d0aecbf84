package utils

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"
)

var seqNum uint64

// GenLogId generate log id for one request
func GenLogId() string {
	return fmt.Sprintf("%d_%d", time.Now().UnixNano(), GenPseudoUniqId())
}

// GenPseudoUniqId generate pseudo unique id by (second<<32 | seq<<8 | rand)
func GenPseudoUniqId() uint64 {
	seq := atomic.AddUint64(&seqNum, 1)
	rnd := rand.Int63n(0xFF)
	return uint64(time.Now().Unix())<<32 | (seq&0xFFFFFF)<<8 | uint64(rnd)
}

// F converts a byte slice to its hex string form
func F(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

// FileIsExist check if the file or directory exists
func FileIsExist(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}

	return true
}

// GetFuncCall return the file:line and function name of the caller
func GetFuncCall(callDepth int) (string, string) {
	pc, file, line, ok := runtime.Caller(callDepth)
	if !ok {
		return "???:0", "???"
	}

	fileLine := fmt.Sprintf("%s:%d", filepath.Base(file), line)
	fc := runtime.FuncForPC(pc)
	if fc == nil {
		return fileLine, "???"
	}

	return fileLine, filepath.Base(fc.Name())
}

// GetCurFileDir return the directory of the caller's source file
func GetCurFileDir() string {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return ""
	}

	return filepath.Dir(file)
}

// GetCurExecDir return the directory of the running binary
func GetCurExecDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	return filepath.Dir(execPath)
}

// GetCurRootDir return the parent directory of the running binary directory
func GetCurRootDir() string {
	return filepath.Dir(GetCurExecDir())
}
