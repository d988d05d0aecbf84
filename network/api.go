package network

import (
	"sync"
	"time"

	"github.com/gurrpi/codechain/ioservice"
	"github.com/gurrpi/codechain/logger"
	netBase "github.com/gurrpi/codechain/network/base"
)

// extensionRef is the droppable handle an API keeps to its extension.
// The registry keeps the strong reference; once drop is called every
// later resolve returns nil and API calls degrade to diagnostics.
type extensionRef struct {
	mutex sync.RWMutex
	ext   netBase.Extension
}

func newExtensionRef(ext netBase.Extension) *extensionRef {
	return &extensionRef{ext: ext}
}

func (t *extensionRef) resolve() netBase.Extension {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.ext
}

func (t *extensionRef) drop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.ext = nil
}

// clientAPI forwards an extension's outbound actions into the transport
// and timer services. It holds only the droppable handle back to the
// extension, never the extension itself.
type clientAPI struct {
	log          logger.Logger
	ref          *extensionRef
	p2pChannel   ioservice.Channel
	timerChannel ioservice.Channel
}

var _ netBase.API = (*clientAPI)(nil)

// Send push the payload to the transport, fire-and-forget. Delivery is
// best-effort so an enqueue failure is logged, never raised.
func (t *clientAPI) Send(id netBase.PeerID, message []byte) {
	ext := t.ref.resolve()
	if ext == nil {
		t.log.Warn("the extension already dropped")
		return
	}

	data := make([]byte, len(message))
	copy(data, message)
	env := netBase.Envelope{
		PeerID:         id,
		ExtensionName:  ext.Name(),
		NeedEncryption: ext.NeedEncryption(),
		Data:           data,
	}
	if err := t.p2pChannel.Send(env); err != nil {
		t.log.Error("extension cannot send message", "extension", ext.Name(),
			"bytes", len(data), "peer", id, "err", err)
		return
	}
	t.log.Debug("extension sends message", "extension", ext.Name(), "bytes", len(data), "peer", id)
}

func (t *clientAPI) SetTimer(timerID netBase.TimerID, d time.Duration) error {
	ext := t.ref.resolve()
	if ext == nil {
		return netBase.ErrExtensionDropped
	}

	return t.timerChannel.SendSync(SetTimerMessage{
		ExtensionName: ext.Name(),
		TimerID:       timerID,
		Duration:      d,
	})
}

func (t *clientAPI) SetTimerOnce(timerID netBase.TimerID, d time.Duration) error {
	ext := t.ref.resolve()
	if ext == nil {
		return netBase.ErrExtensionDropped
	}

	return t.timerChannel.SendSync(SetTimerOnceMessage{
		ExtensionName: ext.Name(),
		TimerID:       timerID,
		Duration:      d,
	})
}

func (t *clientAPI) ClearTimer(timerID netBase.TimerID) error {
	ext := t.ref.resolve()
	if ext == nil {
		return netBase.ErrExtensionDropped
	}

	return t.timerChannel.SendSync(ClearTimerMessage{
		ExtensionName: ext.Name(),
		TimerID:       timerID,
	})
}

// SendLocalMessage forward an intra-process payload tagged with the
// extension's name, asynchronously on the timer service queue.
func (t *clientAPI) SendLocalMessage(message []byte) {
	ext := t.ref.resolve()
	if ext == nil {
		t.log.Debug("the extension already dropped")
		return
	}

	data := make([]byte, len(message))
	copy(data, message)
	if err := t.timerChannel.Send(LocalMessage{
		ExtensionName: ext.Name(),
		Data:          data,
	}); err != nil {
		t.log.Warn("cannot send local message", "extension", ext.Name(), "err", err)
	}
}
