package network

import (
	"fmt"
	"sync"

	"github.com/gurrpi/codechain/common/metrics"
	"github.com/gurrpi/codechain/ioservice"
	"github.com/gurrpi/codechain/logger"
	netBase "github.com/gurrpi/codechain/network/base"
)

// SubModName 日志子模块名
const SubModName = "netapi"

// ExtensionVersion is one registered extension with its protocol versions
type ExtensionVersion struct {
	Name     string
	Versions []uint64
}

// Client owns every registered extension by unique name and routes inbound
// network events, timer events and local messages to exactly the right one.
// Registration must complete before dispatch begins: every dispatch runs
// under a read-held lock and never registers.
type Client struct {
	ctx *netBase.NetCtx
	log logger.Logger

	mutex      sync.RWMutex
	extensions map[string]*extensionRef

	p2pChannel   ioservice.Channel
	timerChannel ioservice.Channel

	metricSwitch bool
}

func NewClient(ctx *netBase.NetCtx, p2pChannel, timerChannel ioservice.Channel) *Client {
	metricSwitch := false
	if ctx.EnvCfg != nil {
		metricSwitch = ctx.EnvCfg.MetricSwitch
	}

	var log logger.Logger = ctx.XLog
	if xlog, err := logger.NewLogger("", SubModName); err == nil {
		log = xlog
	}

	return &Client{
		ctx:          ctx,
		log:          log,
		extensions:   make(map[string]*extensionRef),
		p2pChannel:   p2pChannel,
		timerChannel: timerChannel,
		metricSwitch: metricSwitch,
	}
}

// Register insert the extension under its name. Two modules claiming the
// same protocol identity is a deployment bug the node cannot run with,
// so a duplicate name panics instead of returning an error.
func (c *Client) Register(extension netBase.Extension) {
	name := extension.Name()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.extensions[name]; ok {
		panic(fmt.Sprintf("duplicated extension name: %s", name))
	}
	c.extensions[name] = newExtensionRef(extension)
}

// Initialize build a fresh API bound to the named extension and invoke its
// initialization callback synchronously.
func (c *Client) Initialize(name string) {
	c.mutex.RLock()
	ref, ok := c.extensions[name]
	c.mutex.RUnlock()
	if !ok {
		c.log.Debug("initialize unknown extension", "extension", name)
		return
	}

	ext := ref.resolve()
	if ext == nil {
		c.log.Debug("initialize dropped extension", "extension", name)
		return
	}

	api := &clientAPI{
		log:          c.log,
		ref:          ref,
		p2pChannel:   c.p2pChannel,
		timerChannel: c.timerChannel,
	}
	ext.OnInitialize(api)
}

// Versions report (name, versions) for every registered extension,
// consumed by the handshake layer.
func (c *Client) Versions() []ExtensionVersion {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]ExtensionVersion, 0, len(c.extensions))
	for name, ref := range c.extensions {
		ext := ref.resolve()
		if ext == nil {
			continue
		}
		out = append(out, ExtensionVersion{Name: name, Versions: ext.Versions()})
	}
	return out
}

// OnNodeAdded broadcast to every registered extension. Iteration order
// across extensions is not stable and carries no guarantee.
func (c *Client) OnNodeAdded(id netBase.PeerID, version uint64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for name, ref := range c.extensions {
		ext := ref.resolve()
		if ext == nil {
			continue
		}
		ext.OnNodeAdded(id, version)
		c.countDispatch(name, "OnNodeAdded")
	}
}

// OnNodeRemoved broadcast to every registered extension
func (c *Client) OnNodeRemoved(id netBase.PeerID) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for name, ref := range c.extensions {
		ext := ref.resolve()
		if ext == nil {
			continue
		}
		ext.OnNodeRemoved(id)
		c.countDispatch(name, "OnNodeRemoved")
	}
}

// OnMessage deliver a network message to the single named extension. A
// message for an unknown protocol is a remote peer's problem, not ours,
// so it is logged and dropped.
func (c *Client) OnMessage(name string, id netBase.PeerID, data []byte) {
	ext := c.lookup(name, "OnMessage")
	if ext == nil {
		return
	}

	c.log.Debug("extension receives message", "extension", name, "bytes", len(data), "peer", id)
	ext.OnMessage(id, data)
	c.countDispatch(name, "OnMessage")
}

// OnTimeout deliver a fired logical timer, already self-cleared by the
// TimerHandler when it was one-shot.
func (c *Client) OnTimeout(name string, timerID netBase.TimerID) {
	ext := c.lookup(name, "OnTimeout")
	if ext == nil {
		return
	}

	ext.OnTimeout(timerID)
	c.countDispatch(name, "OnTimeout")
}

// OnLocalMessage deliver an intra-process message to the named extension
func (c *Client) OnLocalMessage(name string, data []byte) {
	ext := c.lookup(name, "OnLocalMessage")
	if ext == nil {
		return
	}

	ext.OnLocalMessage(data)
	c.countDispatch(name, "OnLocalMessage")
}

// OnTimerSetAllowed complete the timer-arming protocol for the extension
func (c *Client) OnTimerSetAllowed(name string, timerID netBase.TimerID) {
	ext := c.lookup(name, "OnTimerSetAllowed")
	if ext == nil {
		return
	}

	ext.OnTimerSetAllowed(timerID)
}

// OnTimerSetDenied report why the timer request was refused. The reason
// matters: a duplicated id needs a different id, an exhausted pool needs
// backoff and retry.
func (c *Client) OnTimerSetDenied(name string, timerID netBase.TimerID, reason error) {
	ext := c.lookup(name, "OnTimerSetDenied")
	if ext == nil {
		return
	}

	ext.OnTimerSetDenied(timerID, reason)
}

// Close drop every extension handle so that late API calls degrade to
// diagnostics instead of reaching torn-down modules.
func (c *Client) Close() {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, ref := range c.extensions {
		ref.drop()
	}
}

func (c *Client) lookup(name string, method string) netBase.Extension {
	c.mutex.RLock()
	ref, ok := c.extensions[name]
	c.mutex.RUnlock()
	if !ok {
		c.log.Warn("extension doesn't exist", "extension", name, "method", method)
		if c.metricSwitch {
			metrics.ExtensionDropCounter.WithLabelValues(method).Inc()
		}
		return nil
	}

	ext := ref.resolve()
	if ext == nil {
		c.log.Warn("extension already dropped", "extension", name, "method", method)
		if c.metricSwitch {
			metrics.ExtensionDropCounter.WithLabelValues(method).Inc()
		}
		return nil
	}
	return ext
}

func (c *Client) countDispatch(name string, method string) {
	if !c.metricSwitch {
		return
	}
	metrics.ExtensionDispatchCounter.WithLabelValues(name, method).Inc()
}
