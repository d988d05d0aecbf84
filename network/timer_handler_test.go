package network

import (
	"sync"
	"testing"
	"time"

	"github.com/gurrpi/codechain/ioservice"
	netBase "github.com/gurrpi/codechain/network/base"
)

// fakeRegistry records timer registrations without running any clock.
type fakeRegistry struct {
	mutex      sync.Mutex
	registered map[ioservice.TimerToken]bool // token -> once
	cleared    []ioservice.TimerToken
	failNext   error
}

var _ ioservice.TimerRegistry = (*fakeRegistry)(nil)

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: make(map[ioservice.TimerToken]bool)}
}

func (t *fakeRegistry) RegisterTimer(token ioservice.TimerToken, _ time.Duration) error {
	return t.register(token, false)
}

func (t *fakeRegistry) RegisterTimerOnce(token ioservice.TimerToken, _ time.Duration) error {
	return t.register(token, true)
}

func (t *fakeRegistry) register(token ioservice.TimerToken, once bool) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.failNext != nil {
		err := t.failNext
		t.failNext = nil
		return err
	}
	t.registered[token] = once
	return nil
}

func (t *fakeRegistry) ClearTimer(token ioservice.TimerToken) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.registered, token)
	t.cleared = append(t.cleared, token)
	return nil
}

func newTestHandler(t *testing.T, maxTimers int) (*TimerHandler, *Client, *testExtension) {
	t.Helper()

	ctx := newTestNetCtx(t, maxTimers)
	timerSvc, err := ioservice.NewService("timer")
	if err != nil {
		t.Fatal(err)
	}
	p2pSvc, err := ioservice.NewService("p2p")
	if err != nil {
		t.Fatal(err)
	}

	client := NewClient(ctx, p2pSvc.Channel(), timerSvc.Channel())
	handler := NewTimerHandler(ctx, client)
	timerSvc.RegisterHandler(handler)

	ext := newTestExtension("e1")
	client.Register(ext)
	return handler, client, ext
}

func TestSetTimerAllowed(t *testing.T) {
	handler, _, ext := newTestHandler(t, 10)
	reg := newFakeRegistry()

	err := handler.OnMessage(reg, SetTimerMessage{ExtensionName: "e1", TimerID: 5, Duration: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	if ext.allowedCount() != 1 {
		t.Fatalf("expect 1 allow got %d", ext.allowedCount())
	}
	reg.mutex.Lock()
	once, ok := reg.registered[0]
	reg.mutex.Unlock()
	if !ok || once {
		t.Fatal("recurring timer not registered on the first token")
	}
}

func TestSetTimerDuplicatedDenied(t *testing.T) {
	handler, _, ext := newTestHandler(t, 10)
	reg := newFakeRegistry()

	msg := SetTimerMessage{ExtensionName: "e1", TimerID: 5, Duration: time.Second}
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}

	if reason := ext.deniedReason(5); reason != netBase.ErrDuplicatedTimerID {
		t.Fatalf("expect ErrDuplicatedTimerID got %v", reason)
	}
	if ext.allowedCount() != 1 {
		t.Fatalf("expect 1 allow got %d", ext.allowedCount())
	}
}

func TestSetTimerNoMoreToken(t *testing.T) {
	handler, _, ext := newTestHandler(t, 2)
	reg := newFakeRegistry()

	for id := netBase.TimerID(0); id < 2; id++ {
		msg := SetTimerMessage{ExtensionName: "e1", TimerID: id, Duration: time.Second}
		if err := handler.OnMessage(reg, msg); err != nil {
			t.Fatal(err)
		}
	}

	msg := SetTimerMessage{ExtensionName: "e1", TimerID: 9, Duration: time.Second}
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}
	if reason := ext.deniedReason(9); reason != netBase.ErrNoMoreTimerToken {
		t.Fatalf("expect ErrNoMoreTimerToken got %v", reason)
	}
}

func TestSetTimerRegisterFailureRollsBack(t *testing.T) {
	handler, _, ext := newTestHandler(t, 10)
	reg := newFakeRegistry()
	reg.failNext = ioservice.ErrServiceStopped

	msg := SetTimerMessage{ExtensionName: "e1", TimerID: 5, Duration: time.Second}
	if err := handler.OnMessage(reg, msg); err != ioservice.ErrServiceStopped {
		t.Fatalf("expect register error got %v", err)
	}
	if ext.allowedCount() != 0 {
		t.Fatal("failed registration reported allowed")
	}

	// the slot was rolled back, the same id arms cleanly now
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}
	if ext.allowedCount() != 1 {
		t.Fatalf("expect 1 allow got %d", ext.allowedCount())
	}
}

func TestClearTimer(t *testing.T) {
	handler, _, _ := newTestHandler(t, 10)
	reg := newFakeRegistry()

	set := SetTimerMessage{ExtensionName: "e1", TimerID: 5, Duration: time.Second}
	if err := handler.OnMessage(reg, set); err != nil {
		t.Fatal(err)
	}
	clear := ClearTimerMessage{ExtensionName: "e1", TimerID: 5}
	if err := handler.OnMessage(reg, clear); err != nil {
		t.Fatal(err)
	}

	reg.mutex.Lock()
	cleared := len(reg.cleared)
	reg.mutex.Unlock()
	if cleared != 1 {
		t.Fatalf("expect 1 cleared token got %d", cleared)
	}

	// the slot is free again
	if err := handler.OnMessage(reg, set); err != nil {
		t.Fatal(err)
	}
}

func TestClearUnarmedTimerPanics(t *testing.T) {
	handler, _, _ := newTestHandler(t, 10)
	reg := newFakeRegistry()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expect panic on clearing a timer that was never set")
		}
	}()
	handler.OnMessage(reg, ClearTimerMessage{ExtensionName: "e1", TimerID: 5})
}

func TestOnTimeoutRecurringKeepsSlot(t *testing.T) {
	handler, _, ext := newTestHandler(t, 10)
	reg := newFakeRegistry()

	msg := SetTimerMessage{ExtensionName: "e1", TimerID: 5, Duration: time.Second}
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}

	if err := handler.OnTimeout(reg, 0); err != nil {
		t.Fatal(err)
	}
	if err := handler.OnTimeout(reg, 0); err != nil {
		t.Fatal(err)
	}
	if ext.timeoutCount() != 2 {
		t.Fatalf("expect 2 timeouts got %d", ext.timeoutCount())
	}

	// still armed, so the same id is rejected
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}
	if reason := ext.deniedReason(5); reason != netBase.ErrDuplicatedTimerID {
		t.Fatalf("expect ErrDuplicatedTimerID got %v", reason)
	}
}

func TestOnTimeoutOnceSelfClears(t *testing.T) {
	handler, _, ext := newTestHandler(t, 10)
	reg := newFakeRegistry()

	msg := SetTimerOnceMessage{ExtensionName: "e1", TimerID: 5, Duration: time.Second}
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}

	if err := handler.OnTimeout(reg, 0); err != nil {
		t.Fatal(err)
	}
	if ext.timeoutCount() != 1 {
		t.Fatalf("expect 1 timeout got %d", ext.timeoutCount())
	}

	// the slot cleared itself before the extension was notified,
	// so firing again is an invalid token and re-arming succeeds
	if err := handler.OnTimeout(reg, 0); err == nil {
		t.Fatal("expect invalid token error after once fire")
	}
	if err := handler.OnMessage(reg, msg); err != nil {
		t.Fatal(err)
	}
	if ext.allowedCount() != 2 {
		t.Fatalf("expect 2 allows got %d", ext.allowedCount())
	}
}

// end-to-end over a running io service: request through the API,
// observe allow and fire on the extension.
func TestTimerServiceRoundtrip(t *testing.T) {
	ctx := newTestNetCtx(t, 10)
	timerSvc, err := ioservice.NewService("timer")
	if err != nil {
		t.Fatal(err)
	}
	p2pSvc, err := ioservice.NewService("p2p")
	if err != nil {
		t.Fatal(err)
	}
	p2pSvc.RegisterHandler(&discardHandler{})

	client := NewClient(ctx, p2pSvc.Channel(), timerSvc.Channel())
	timerSvc.RegisterHandler(NewTimerHandler(ctx, client))
	if err = timerSvc.Start(); err != nil {
		t.Fatal(err)
	}
	defer timerSvc.Stop()

	ext := newTestExtension("e1")
	client.Register(ext)
	client.Initialize("e1")

	api := ext.getAPI()
	if api == nil {
		t.Fatal("extension not initialized")
	}

	if err = api.SetTimerOnce(5, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !waitFor(func() bool { return ext.allowedCount() == 1 }) {
		t.Fatal("timer request not allowed")
	}
	if !waitFor(func() bool { return ext.timeoutCount() == 1 }) {
		t.Fatal("once timer never fired")
	}

	// recurring timer keeps firing until cleared
	if err = api.SetTimer(6, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !waitFor(func() bool { return ext.timeoutCount() >= 3 }) {
		t.Fatal("recurring timer stalled")
	}
	if err = api.ClearTimer(6); err != nil {
		t.Fatal(err)
	}
}
