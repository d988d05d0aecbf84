package p2p

import (
	"net"
	"sync"

	"github.com/gammazero/deque"

	"github.com/gurrpi/codechain/logger"
	netBase "github.com/gurrpi/codechain/network/base"
)

// conn is one established peer connection. Outbound messages go through
// a bounded pending queue drained by a single write goroutine, so Send
// never blocks the dispatching thread on a slow peer.
type conn struct {
	id  netBase.PeerID
	log logger.Logger

	nc         net.Conn
	maxPending int

	mutex   sync.Mutex
	pending deque.Deque
	wake    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newConn(id netBase.PeerID, nc net.Conn, maxPending int, log logger.Logger) *conn {
	c := &conn{
		id:         id,
		log:        log,
		nc:         nc,
		maxPending: maxPending,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	c.wg.Add(1)
	go c.writeLoop()
	return c
}

// enqueue queue a message for delivery, dropping the oldest pending one
// when the peer cannot keep up.
func (c *conn) enqueue(msg *Message) {
	c.mutex.Lock()
	if c.pending.Len() >= c.maxPending {
		c.pending.PopFront()
		c.log.Warn("pending queue full, dropping oldest message", "peer", c.id)
	}
	c.pending.PushBack(msg)
	c.mutex.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *conn) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}

		for {
			c.mutex.Lock()
			if c.pending.Len() == 0 {
				c.mutex.Unlock()
				break
			}
			msg := c.pending.PopFront().(*Message)
			c.mutex.Unlock()

			if err := WriteMessage(c.nc, msg); err != nil {
				c.log.Error("write message error", "peer", c.id, "err", err)
				c.close()
				return
			}
		}
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.nc.Close()
	})
}

func (c *conn) wait() {
	c.wg.Wait()
}

// connPool keeps the established connections keyed by peer id
type connPool struct {
	mutex sync.RWMutex
	conns map[netBase.PeerID]*conn
}

func newConnPool() *connPool {
	return &connPool{
		conns: make(map[netBase.PeerID]*conn),
	}
}

// Add register the connection, refusing a second one for the same peer
func (p *connPool) Add(c *conn) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, ok := p.conns[c.id]; ok {
		return false
	}
	p.conns[c.id] = c
	return true
}

func (p *connPool) Get(id netBase.PeerID) (*conn, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	c, ok := p.conns[id]
	return c, ok
}

func (p *connPool) Remove(id netBase.PeerID) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	delete(p.conns, id)
}

func (p *connPool) All() []*conn {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	out := make([]*conn, 0, len(p.conns))
	for _, c := range p.conns {
		out = append(out, c)
	}
	return out
}

func (p *connPool) Close() {
	for _, c := range p.All() {
		c.close()
	}
}
