package ioservice

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gurrpi/codechain/logger"
)

var (
	ErrServiceStopped = errors.New("io service already stopped")
	ErrChannelFull    = errors.New("io service channel is full")
)

// TimerToken 底层定时器槽位标识
type TimerToken int

// DefMsgChanBufSize 默认消息队列buf大小
const DefMsgChanBufSize = 1024

// Handler consumes the messages and timer fires of one Service. Both
// callbacks run on the service goroutine, never concurrently.
type Handler interface {
	OnMessage(io TimerRegistry, msg interface{}) error
	OnTimeout(io TimerRegistry, token TimerToken) error
}

// TimerRegistry is the timer facility a Handler drives: register a slot
// token for single or repeated firing, or cancel it.
type TimerRegistry interface {
	RegisterTimer(token TimerToken, d time.Duration) error
	RegisterTimerOnce(token TimerToken, d time.Duration) error
	ClearTimer(token TimerToken) error
}

type timerEntry struct {
	once bool
	stop chan struct{}
}

// Service drains one inbound message queue plus the fires of its own
// timer slots on a dedicated goroutine, serializing handler state without
// a lock held across callbacks.
type Service struct {
	name    string
	log     logger.Logger
	handler Handler

	msgCh  chan interface{}
	fireCh chan TimerToken
	done   chan struct{}

	mutex    sync.Mutex
	timers   map[TimerToken]*timerEntry
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewService(name string) (*Service, error) {
	log, err := logger.NewLogger("", "ioservice")
	if err != nil {
		return nil, fmt.Errorf("new io service failed because new logger error.err:%v", err)
	}

	t := &Service{
		name:   name,
		log:    log,
		msgCh:  make(chan interface{}, DefMsgChanBufSize),
		fireCh: make(chan TimerToken, DefMsgChanBufSize),
		done:   make(chan struct{}),
		timers: make(map[TimerToken]*timerEntry),
	}

	return t, nil
}

// RegisterHandler binds the consumer of the queue. Call it before Start,
// handlers are not swappable while the service runs.
func (t *Service) RegisterHandler(handler Handler) {
	t.handler = handler
}

func (t *Service) Start() error {
	if t.handler == nil {
		return fmt.Errorf("start io service failed because handler not registered")
	}

	t.wg.Add(1)
	go t.procLoop()
	return nil
}

func (t *Service) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)

		t.mutex.Lock()
		for token, entry := range t.timers {
			close(entry.stop)
			delete(t.timers, token)
		}
		t.mutex.Unlock()
	})
	t.wg.Wait()
}

// Channel returns a handle for feeding messages into the service queue.
func (t *Service) Channel() Channel {
	return Channel{svc: t}
}

func (t *Service) procLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.done:
			return
		case msg := <-t.msgCh:
			if err := t.handler.OnMessage(t, msg); err != nil {
				t.log.Error("io service handle message error", "service", t.name, "err", err)
			}
		case token := <-t.fireCh:
			// single-fire slots are discarded before the handler runs
			t.mutex.Lock()
			if entry, ok := t.timers[token]; ok && entry.once {
				close(entry.stop)
				delete(t.timers, token)
			}
			t.mutex.Unlock()

			if err := t.handler.OnTimeout(t, token); err != nil {
				t.log.Error("io service handle timeout error", "service", t.name, "token", token, "err", err)
			}
		}
	}
}

// RegisterTimer arm a recurring timer on the given token
func (t *Service) RegisterTimer(token TimerToken, d time.Duration) error {
	return t.registerTimer(token, d, false)
}

// RegisterTimerOnce arm a single-fire timer on the given token
func (t *Service) RegisterTimerOnce(token TimerToken, d time.Duration) error {
	return t.registerTimer(token, d, true)
}

func (t *Service) registerTimer(token TimerToken, d time.Duration, once bool) error {
	select {
	case <-t.done:
		return ErrServiceStopped
	default:
	}

	entry := &timerEntry{
		once: once,
		stop: make(chan struct{}),
	}

	t.mutex.Lock()
	if old, ok := t.timers[token]; ok {
		close(old.stop)
	}
	t.timers[token] = entry
	t.mutex.Unlock()

	go t.fireLoop(token, d, entry)
	return nil
}

func (t *Service) fireLoop(token TimerToken, d time.Duration, entry *timerEntry) {
	if entry.once {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			t.pushFire(token)
		case <-entry.stop:
		}
		return
	}

	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.pushFire(token)
		case <-entry.stop:
			return
		}
	}
}

func (t *Service) pushFire(token TimerToken) {
	select {
	case t.fireCh <- token:
	case <-t.done:
	}
}

// ClearTimer cancel the timer bound to the token. Clearing an inactive
// token is a no-op because a single-fire slot may discard itself first.
func (t *Service) ClearTimer(token TimerToken) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if entry, ok := t.timers[token]; ok {
		close(entry.stop)
		delete(t.timers, token)
	}
	return nil
}

// Channel feeds the message queue of one Service. Send is fire-and-forget,
// SendSync blocks the caller until the message is accepted onto the queue.
type Channel struct {
	svc *Service
}

func (c Channel) Send(msg interface{}) error {
	select {
	case <-c.svc.done:
		return ErrServiceStopped
	default:
	}

	select {
	case c.svc.msgCh <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

func (c Channel) SendSync(msg interface{}) error {
	select {
	case <-c.svc.done:
		return ErrServiceStopped
	default:
	}

	select {
	case c.svc.msgCh <- msg:
		return nil
	case <-c.svc.done:
		return ErrServiceStopped
	}
}
