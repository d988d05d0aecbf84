package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/gurrpi/codechain/common/metrics"
	"github.com/gurrpi/codechain/ioservice"
	"github.com/gurrpi/codechain/logger"
	netBase "github.com/gurrpi/codechain/network/base"
)

// Control messages accepted by the TimerHandler's service queue.
type (
	// SetTimerMessage request a recurring timer under the logical id
	SetTimerMessage struct {
		ExtensionName string
		TimerID       netBase.TimerID
		Duration      time.Duration
	}

	// SetTimerOnceMessage request a single-fire timer under the logical id
	SetTimerOnceMessage struct {
		ExtensionName string
		TimerID       netBase.TimerID
		Duration      time.Duration
	}

	// ClearTimerMessage cancel the logical timer
	ClearTimerMessage struct {
		ExtensionName string
		TimerID       netBase.TimerID
	}

	// LocalMessage intra-process payload addressed to one extension
	LocalMessage struct {
		ExtensionName string
		Data          []byte
	}
)

// TimerHandler consumes timer-control messages and fired tokens on its
// io service loop, drives the TimerSlots allocator and reports outcomes
// back through the Client. The slot table is the only state it guards;
// the lock is never held across a dispatch into extension code.
type TimerHandler struct {
	client *Client
	log    logger.Logger

	mutex sync.Mutex
	slots *TimerSlots

	metricSwitch bool
}

var _ ioservice.Handler = (*TimerHandler)(nil)

func NewTimerHandler(ctx *netBase.NetCtx, client *Client) *TimerHandler {
	maxTimers := netBase.DefaultMaxTimers
	firstToken := ioservice.TimerToken(netBase.DefaultFirstTimerToken)
	if ctx.NetCfg != nil {
		if ctx.NetCfg.MaxTimers > 0 {
			maxTimers = ctx.NetCfg.MaxTimers
		}
		firstToken = ioservice.TimerToken(ctx.NetCfg.FirstTimerToken)
	}

	metricSwitch := false
	if ctx.EnvCfg != nil {
		metricSwitch = ctx.EnvCfg.MetricSwitch
	}

	return &TimerHandler{
		client:       client,
		log:          ctx.XLog,
		slots:        NewTimerSlots(firstToken, maxTimers),
		metricSwitch: metricSwitch,
	}
}

func (t *TimerHandler) OnMessage(io ioservice.TimerRegistry, msg interface{}) error {
	switch m := msg.(type) {
	case SetTimerMessage:
		return t.setTimer(io, m.ExtensionName, m.TimerID, m.Duration, false)
	case SetTimerOnceMessage:
		return t.setTimer(io, m.ExtensionName, m.TimerID, m.Duration, true)
	case ClearTimerMessage:
		return t.clearTimer(io, m.ExtensionName, m.TimerID)
	case LocalMessage:
		t.client.OnLocalMessage(m.ExtensionName, m.Data)
		return nil
	default:
		return fmt.Errorf("unexpected timer handler message:%T", msg)
	}
}

// OnTimeout a low-level token fired. A one-shot mapping is removed before
// the extension hears about it, so that a concurrent clear or re-arm for
// the same id cannot race an about-to-fire timer.
func (t *TimerHandler) OnTimeout(_ ioservice.TimerRegistry, token ioservice.TimerToken) error {
	t.mutex.Lock()
	info, ok := t.slots.GetInfo(token)
	if !ok {
		t.mutex.Unlock()
		return fmt.Errorf("invalid timer token:%d", token)
	}
	if info.Once {
		t.slots.RemoveByToken(token)
		t.setSlotGauge()
	}
	t.mutex.Unlock()

	t.client.OnTimeout(info.Name, info.TimerID)
	return nil
}

func (t *TimerHandler) setTimer(io ioservice.TimerRegistry, name string,
	timerID netBase.TimerID, d time.Duration, once bool) error {

	t.mutex.Lock()
	token, err := t.slots.Insert(name, timerID, once)
	if err == nil {
		t.setSlotGauge()
	}
	t.mutex.Unlock()

	switch err {
	case nil:
	case netBase.ErrDuplicatedTimerID:
		t.denyTimer(name, timerID, netBase.ErrDuplicatedTimerID)
		return nil
	case ErrNoSpace:
		t.denyTimer(name, timerID, netBase.ErrNoMoreTimerToken)
		return nil
	default:
		return err
	}

	if once {
		err = io.RegisterTimerOnce(token, d)
	} else {
		err = io.RegisterTimer(token, d)
	}
	if err != nil {
		t.mutex.Lock()
		t.slots.RemoveByToken(token)
		t.setSlotGauge()
		t.mutex.Unlock()
		return err
	}

	t.client.OnTimerSetAllowed(name, timerID)
	return nil
}

func (t *TimerHandler) clearTimer(io ioservice.TimerRegistry, name string, timerID netBase.TimerID) error {
	t.mutex.Lock()
	token, ok := t.slots.RemoveByInfo(name, timerID)
	if ok {
		t.setSlotGauge()
	}
	t.mutex.Unlock()

	// An extension controls its own timer ids, losing track of one is a
	// bug in the extension and the core cannot guess intent.
	if !ok {
		panic(fmt.Sprintf("extension %s cleared timer %d that was never set", name, timerID))
	}

	return io.ClearTimer(token)
}

func (t *TimerHandler) denyTimer(name string, timerID netBase.TimerID, reason error) {
	t.log.Debug("timer request denied", "extension", name, "timerID", timerID, "reason", reason)
	if t.metricSwitch {
		metrics.TimerDeniedCounter.WithLabelValues(reason.Error()).Inc()
	}
	t.client.OnTimerSetDenied(name, timerID, reason)
}

func (t *TimerHandler) setSlotGauge() {
	if !t.metricSwitch {
		return
	}
	metrics.TimerSlotGauge.Set(float64(t.slots.Len()))
}
