package ioservice

import (
	"fmt"
	"testing"
	"time"

	mock "github.com/gurrpi/codechain/mock/config"
)

type recordHandler struct {
	msgCh  chan interface{}
	fireCh chan TimerToken
}

func newRecordHandler() *recordHandler {
	return &recordHandler{
		msgCh:  make(chan interface{}, 128),
		fireCh: make(chan TimerToken, 128),
	}
}

func (t *recordHandler) OnMessage(_ TimerRegistry, msg interface{}) error {
	t.msgCh <- msg
	return nil
}

func (t *recordHandler) OnTimeout(_ TimerRegistry, token TimerToken) error {
	t.fireCh <- token
	return nil
}

func newTestService(t *testing.T, handler Handler) *Service {
	t.Helper()
	mock.InitFakeLogger()

	svc, err := NewService("test")
	if err != nil {
		t.Fatal(err)
	}
	svc.RegisterHandler(handler)
	if err = svc.Start(); err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestServiceDispatchMessage(t *testing.T) {
	handler := newRecordHandler()
	svc := newTestService(t, handler)
	defer svc.Stop()

	ch := svc.Channel()
	for i := 0; i < 10; i++ {
		if err := ch.Send(fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("send %d error:%v", i, err)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case msg := <-handler.msgCh:
			want := fmt.Sprintf("msg-%d", i)
			if msg != want {
				t.Fatalf("expect %s got %v", want, msg)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("message %d not dispatched", i)
		}
	}
}

func TestServiceStartWithoutHandler(t *testing.T) {
	mock.InitFakeLogger()

	svc, err := NewService("test")
	if err != nil {
		t.Fatal(err)
	}
	if err = svc.Start(); err == nil {
		t.Fatal("expect start error without handler")
	}
}

func TestServiceSendAfterStop(t *testing.T) {
	handler := newRecordHandler()
	svc := newTestService(t, handler)

	ch := svc.Channel()
	svc.Stop()

	if err := ch.Send("late"); err != ErrServiceStopped {
		t.Fatalf("expect ErrServiceStopped got %v", err)
	}
	if err := ch.SendSync("late"); err != ErrServiceStopped {
		t.Fatalf("expect ErrServiceStopped got %v", err)
	}
}

func TestServiceChannelFull(t *testing.T) {
	mock.InitFakeLogger()

	// not started, so nothing drains the queue
	svc, err := NewService("test")
	if err != nil {
		t.Fatal(err)
	}
	svc.RegisterHandler(newRecordHandler())

	ch := svc.Channel()
	for i := 0; i < DefMsgChanBufSize; i++ {
		if err := ch.Send(i); err != nil {
			t.Fatalf("send %d error:%v", i, err)
		}
	}
	if err := ch.Send("overflow"); err != ErrChannelFull {
		t.Fatalf("expect ErrChannelFull got %v", err)
	}
}

func TestRegisterTimerOnce(t *testing.T) {
	handler := newRecordHandler()
	svc := newTestService(t, handler)
	defer svc.Stop()

	if err := svc.RegisterTimerOnce(7, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	select {
	case token := <-handler.fireCh:
		if token != 7 {
			t.Fatalf("expect token 7 got %d", token)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("once timer did not fire")
	}

	// no second fire
	select {
	case token := <-handler.fireCh:
		t.Fatalf("once timer fired again with token %d", token)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegisterTimerRecurring(t *testing.T) {
	handler := newRecordHandler()
	svc := newTestService(t, handler)
	defer svc.Stop()

	if err := svc.RegisterTimer(3, 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		select {
		case token := <-handler.fireCh:
			if token != 3 {
				t.Fatalf("expect token 3 got %d", token)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("recurring timer missed fire %d", i)
		}
	}

	if err := svc.ClearTimer(3); err != nil {
		t.Fatal(err)
	}

	// drain a possibly in-flight fire, then expect silence
	time.Sleep(50 * time.Millisecond)
	for len(handler.fireCh) > 0 {
		<-handler.fireCh
	}
	select {
	case token := <-handler.fireCh:
		t.Fatalf("cleared timer fired with token %d", token)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClearInactiveTimer(t *testing.T) {
	handler := newRecordHandler()
	svc := newTestService(t, handler)
	defer svc.Stop()

	if err := svc.ClearTimer(42); err != nil {
		t.Fatalf("clear inactive token error:%v", err)
	}
}
