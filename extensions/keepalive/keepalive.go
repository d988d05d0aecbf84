package keepalive

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gurrpi/codechain/logger"
	netBase "github.com/gurrpi/codechain/network/base"
)

const (
	// ExtensionName 保活扩展协议名
	ExtensionName = "keep-alive"

	pingTimerID netBase.TimerID = 1

	// DefInterval 默认保活探测周期
	DefInterval = 15 * time.Second
)

var (
	pingPayload = []byte("ping")
	pongPayload = []byte("pong")
)

// Extension pings every known peer on a recurring timer and answers
// inbound pings with pongs. It exercises the full extension surface:
// timers, peer tracking, network sends and local messages.
type Extension struct {
	log      logger.Logger
	interval time.Duration

	mutex sync.Mutex
	api   netBase.API
	peers map[netBase.PeerID]uint64
}

var _ netBase.Extension = (*Extension)(nil)

func NewExtension(interval time.Duration) (*Extension, error) {
	if interval <= 0 {
		interval = DefInterval
	}

	log, err := logger.NewLogger("", ExtensionName)
	if err != nil {
		return nil, fmt.Errorf("new keepalive extension failed because new logger error.err:%v", err)
	}

	return &Extension{
		log:      log,
		interval: interval,
		peers:    make(map[netBase.PeerID]uint64),
	}, nil
}

func (t *Extension) Name() string {
	return ExtensionName
}

func (t *Extension) NeedEncryption() bool {
	return false
}

func (t *Extension) Versions() []uint64 {
	return []uint64{0}
}

// OnInitialize keep the api and request the recurring ping timer. Success
// here only means the request was queued, the arm outcome arrives via
// OnTimerSetAllowed or OnTimerSetDenied.
func (t *Extension) OnInitialize(api netBase.API) {
	t.mutex.Lock()
	t.api = api
	t.mutex.Unlock()

	if err := api.SetTimer(pingTimerID, t.interval); err != nil {
		t.log.Error("request ping timer error", "err", err)
	}
}

func (t *Extension) OnNodeAdded(id netBase.PeerID, version uint64) {
	t.mutex.Lock()
	t.peers[id] = version
	t.mutex.Unlock()

	t.log.Debug("peer added", "peer", id, "version", version)
}

func (t *Extension) OnNodeRemoved(id netBase.PeerID) {
	t.mutex.Lock()
	delete(t.peers, id)
	t.mutex.Unlock()

	t.log.Debug("peer removed", "peer", id)
}

func (t *Extension) OnMessage(id netBase.PeerID, data []byte) {
	api := t.getAPI()
	if api == nil {
		return
	}

	switch {
	case bytes.Equal(data, pingPayload):
		api.Send(id, pongPayload)
	case bytes.Equal(data, pongPayload):
		t.log.Debug("peer alive", "peer", id)
	default:
		t.log.Warn("unexpected keepalive payload", "peer", id, "bytes", len(data))
	}
}

// OnTimeout ping every known peer
func (t *Extension) OnTimeout(timerID netBase.TimerID) {
	if timerID != pingTimerID {
		t.log.Warn("unexpected timer", "timerID", timerID)
		return
	}

	api := t.getAPI()
	if api == nil {
		return
	}

	t.mutex.Lock()
	peers := make([]netBase.PeerID, 0, len(t.peers))
	for id := range t.peers {
		peers = append(peers, id)
	}
	t.mutex.Unlock()

	for _, id := range peers {
		api.Send(id, pingPayload)
	}
}

func (t *Extension) OnLocalMessage(data []byte) {
	t.log.Debug("local message", "bytes", len(data))
}

func (t *Extension) OnTimerSetAllowed(timerID netBase.TimerID) {
	t.log.Info("ping timer armed", "timerID", timerID, "interval", t.interval)
}

// OnTimerSetDenied a denied ping timer means no keepalive at all, which
// is worth an error: duplicated id is a bug here, an exhausted pool
// means the operator configured too few slots.
func (t *Extension) OnTimerSetDenied(timerID netBase.TimerID, reason error) {
	t.log.Error("ping timer denied", "timerID", timerID, "reason", reason)
}

func (t *Extension) getAPI() netBase.API {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.api == nil {
		t.log.Warn("extension not initialized")
	}
	return t.api
}
