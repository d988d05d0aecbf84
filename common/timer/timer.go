package timer

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// XTimer 用于记录请求处理各阶段的耗时
type XTimer struct {
	mutex    sync.Mutex
	bornTime time.Time
	lastTime time.Time
	marks    []string
}

func NewXTimer() *XTimer {
	now := time.Now()
	return &XTimer{
		bornTime: now,
		lastTime: now,
	}
}

// Mark record the cost since the last mark under the given label
func (t *XTimer) Mark(label string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := time.Now()
	cost := now.Sub(t.lastTime)
	t.marks = append(t.marks, fmt.Sprintf("%s:%s", label, cost))
	t.lastTime = now
}

// Print flatten all marks plus the total cost for log output
func (t *XTimer) Print() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	total := fmt.Sprintf("total:%s", time.Since(t.bornTime))
	if len(t.marks) == 0 {
		return total
	}

	return strings.Join(append(t.marks, total), ",")
}
