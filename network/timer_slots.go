package network

import (
	"errors"

	"github.com/gurrpi/codechain/ioservice"
	netBase "github.com/gurrpi/codechain/network/base"
)

// ErrNoSpace 定时器槽位已全部占用
var ErrNoSpace = errors.New("no free timer slot")

// SlotInfo is the logical timer bound to one low-level token
type SlotInfo struct {
	Name    string
	TimerID netBase.TimerID
	Once    bool
}

type slotKey struct {
	name    string
	timerID netBase.TimerID
}

// TimerSlots multiplexes logical (extension, timer id) pairs onto a fixed
// pool of low-level timer tokens. Active tokens and active logical timers
// stay in bijection; the pool never grows. Callers serialize access, the
// TimerHandler owns the only instance behind its service loop.
type TimerSlots struct {
	firstToken ioservice.TimerToken
	slots      []*SlotInfo
	lookup     map[slotKey]ioservice.TimerToken
}

func NewTimerSlots(firstToken ioservice.TimerToken, maxTimers int) *TimerSlots {
	return &TimerSlots{
		firstToken: firstToken,
		slots:      make([]*SlotInfo, maxTimers),
		lookup:     make(map[slotKey]ioservice.TimerToken, maxTimers),
	}
}

// Insert binds (name, timerID) to the first free slot and returns its token.
// The table is left untouched on failure.
func (t *TimerSlots) Insert(name string, timerID netBase.TimerID, once bool) (ioservice.TimerToken, error) {
	key := slotKey{name: name, timerID: timerID}
	if _, ok := t.lookup[key]; ok {
		return 0, netBase.ErrDuplicatedTimerID
	}

	for idx, slot := range t.slots {
		if slot != nil {
			continue
		}
		token := t.firstToken + ioservice.TimerToken(idx)
		t.slots[idx] = &SlotInfo{
			Name:    name,
			TimerID: timerID,
			Once:    once,
		}
		t.lookup[key] = token
		return token, nil
	}

	return 0, ErrNoSpace
}

// RemoveByToken free the slot bound to the token, no-op when inactive
func (t *TimerSlots) RemoveByToken(token ioservice.TimerToken) {
	idx, ok := t.tokenIndex(token)
	if !ok || t.slots[idx] == nil {
		return
	}

	info := t.slots[idx]
	delete(t.lookup, slotKey{name: info.Name, timerID: info.TimerID})
	t.slots[idx] = nil
}

// RemoveByInfo free the slot of the logical timer and return its token.
// The second return reports whether the pair was active at all.
func (t *TimerSlots) RemoveByInfo(name string, timerID netBase.TimerID) (ioservice.TimerToken, bool) {
	key := slotKey{name: name, timerID: timerID}
	token, ok := t.lookup[key]
	if !ok {
		return 0, false
	}

	idx, _ := t.tokenIndex(token)
	t.slots[idx] = nil
	delete(t.lookup, key)
	return token, true
}

// GetInfo return the logical timer bound to an active token
func (t *TimerSlots) GetInfo(token ioservice.TimerToken) (SlotInfo, bool) {
	idx, ok := t.tokenIndex(token)
	if !ok || t.slots[idx] == nil {
		return SlotInfo{}, false
	}

	return *t.slots[idx], true
}

// Len count of active slots
func (t *TimerSlots) Len() int {
	return len(t.lookup)
}

func (t *TimerSlots) tokenIndex(token ioservice.TimerToken) (int, bool) {
	idx := int(token - t.firstToken)
	if idx < 0 || idx >= len(t.slots) {
		return 0, false
	}

	return idx, true
}
