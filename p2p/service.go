package p2p

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/gurrpi/codechain/common/metrics"
	"github.com/gurrpi/codechain/ioservice"
	"github.com/gurrpi/codechain/logger"
	"github.com/gurrpi/codechain/network"
	netBase "github.com/gurrpi/codechain/network/base"
)

const handledTTL = 3 * time.Second

// Service is the TCP transport behind the p2p channel. It consumes
// outbound envelopes from its io service queue, frames them onto peer
// connections, and hands every inbound extension message to the Client
// for dispatch. Connection setup and teardown produce the node-added
// and node-removed broadcasts.
type Service struct {
	ctx    *netBase.NetCtx
	log    logger.Logger
	client *network.Client

	address    string
	maxMsgSize int64
	maxPending int
	timeout    time.Duration

	ln      net.Listener
	pool    *connPool
	handled *cache.Cache
	eg      errgroup.Group

	done     chan struct{}
	stopOnce sync.Once

	metricSwitch bool
}

var _ ioservice.Handler = (*Service)(nil)

func NewService(ctx *netBase.NetCtx, client *network.Client) (*Service, error) {
	if ctx == nil || ctx.NetCfg == nil {
		return nil, fmt.Errorf("new p2p service failed because ctx is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("new p2p service failed because client is nil")
	}

	metricSwitch := false
	if ctx.EnvCfg != nil {
		metricSwitch = ctx.EnvCfg.MetricSwitch
	}

	return &Service{
		ctx:          ctx,
		log:          ctx.XLog,
		client:       client,
		address:      ctx.NetCfg.Address,
		maxMsgSize:   ctx.NetCfg.MaxMessageSize * 1024 * 1024,
		maxPending:   ctx.NetCfg.MaxPendingMsgs,
		timeout:      time.Duration(ctx.NetCfg.Timeout) * time.Second,
		pool:         newConnPool(),
		handled:      cache.New(handledTTL, time.Second),
		done:         make(chan struct{}),
		metricSwitch: metricSwitch,
	}, nil
}

// OnMessage consume one outbound envelope from the transport queue
func (s *Service) OnMessage(_ ioservice.TimerRegistry, msg interface{}) error {
	env, ok := msg.(netBase.Envelope)
	if !ok {
		return fmt.Errorf("unexpected transport message:%T", msg)
	}

	c, ok := s.pool.Get(env.PeerID)
	if !ok {
		// message delivery is best-effort, an unknown peer is not an error
		s.log.Warn("no connection for peer, dropping message",
			"peer", env.PeerID, "extension", env.ExtensionName)
		return nil
	}

	c.enqueue(NewExtensionMessage(s.address, env))
	if s.metricSwitch {
		metrics.NetworkMsgSendCounter.WithLabelValues(env.ExtensionName).Inc()
		metrics.NetworkMsgSendBytesCounter.WithLabelValues(env.ExtensionName).Add(float64(len(env.Data)))
	}
	return nil
}

func (s *Service) OnTimeout(_ ioservice.TimerRegistry, token ioservice.TimerToken) error {
	return fmt.Errorf("unexpected timer token:%d", token)
}

// Start listen for inbound peers and dial the configured boot nodes
func (s *Service) Start() error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("p2p service listen failed.addr:%s,err:%v", s.address, err)
	}
	s.ln = ln

	s.eg.Go(s.acceptLoop)
	for _, addr := range s.ctx.NetCfg.BootNodes {
		addr := addr
		s.eg.Go(func() error {
			s.dial(addr)
			return nil
		})
	}

	s.log.Info("p2p service started", "address", s.address)
	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.ln != nil {
			s.ln.Close()
		}
		s.pool.Close()
	})
	s.eg.Wait()
}

func (s *Service) acceptLoop() error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return err
			}
		}

		go s.handleConn(nc)
	}
}

func (s *Service) dial(addr string) {
	nc, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		s.log.Warn("dial boot node error", "addr", addr, "err", err)
		return
	}

	s.handleConn(nc)
}

// handleConn run the handshake then pump inbound messages until the
// connection dies. Symmetric for inbound and outbound connections.
func (s *Service) handleConn(nc net.Conn) {
	id, version, err := s.handshake(nc)
	if err != nil {
		s.log.Warn("handshake error", "remote", nc.RemoteAddr().String(), "err", err)
		nc.Close()
		return
	}

	c := newConn(id, nc, s.maxPending, s.log)
	if !s.pool.Add(c) {
		s.log.Debug("duplicated connection", "peer", id)
		c.close()
		return
	}

	s.client.OnNodeAdded(id, version)
	s.readLoop(c)
	s.pool.Remove(id)
	c.close()
	c.wait()
	s.client.OnNodeRemoved(id)
}

func (s *Service) handshake(nc net.Conn) (netBase.PeerID, uint64, error) {
	versions := make([]ExtensionVersion, 0)
	for _, v := range s.client.Versions() {
		versions = append(versions, ExtensionVersion{Name: v.Name, Versions: v.Versions})
	}

	hs, err := NewHandshakeMessage(s.address, versions)
	if err != nil {
		return "", 0, err
	}
	if err = WriteMessage(nc, hs); err != nil {
		return "", 0, err
	}

	nc.SetReadDeadline(time.Now().Add(s.timeout))
	defer nc.SetReadDeadline(time.Time{})

	msg, err := ReadMessage(nc, s.maxMsgSize)
	if err != nil {
		return "", 0, err
	}
	if msg.Header.Type != TypeHandshake {
		return "", 0, fmt.Errorf("unexpected first message type:%s", msg.Header.Type)
	}

	payload, err := Payload(msg)
	if err != nil {
		return "", 0, err
	}

	var info HandshakeInfo
	if err = unmarshalHandshake(payload, &info); err != nil {
		return "", 0, err
	}
	if info.Address == s.address {
		return "", 0, fmt.Errorf("connected to self")
	}

	return netBase.PeerID(info.Address), info.ProtocolVersion, nil
}

func (s *Service) readLoop(c *conn) {
	for {
		msg, err := ReadMessage(c.nc, s.maxMsgSize)
		if err != nil {
			select {
			case <-s.done:
			default:
				s.log.Debug("connection closed", "peer", c.id, "err", err)
			}
			return
		}

		if msg.Header.Type != TypeExtension {
			s.log.Debug("skip non-extension message", "peer", c.id, "type", msg.Header.Type)
			continue
		}

		// filter recently handled message
		key := MessageKey(msg)
		if _, ok := s.handled.Get(key); ok {
			continue
		}
		s.handled.Set(key, true, handledTTL)

		payload, err := Payload(msg)
		if err != nil {
			s.log.Warn("drop invalid message", "peer", c.id, "extension", msg.Header.Extension, "err", err)
			continue
		}

		if s.metricSwitch {
			metrics.NetworkMsgReceivedCounter.WithLabelValues(msg.Header.Extension).Inc()
			metrics.NetworkMsgReceivedBytesCounter.WithLabelValues(msg.Header.Extension).Add(float64(len(payload)))
		}
		s.client.OnMessage(msg.Header.Extension, c.id, payload)
	}
}
