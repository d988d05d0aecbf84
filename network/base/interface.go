package base

import (
	"errors"
	"time"
)

// PeerID 对端节点标识，socket地址形式(host:port)
type PeerID string

// TimerID 扩展内部的逻辑定时器标识
type TimerID int

var (
	// ErrExtensionDropped API调用时扩展已被释放
	ErrExtensionDropped = errors.New("the extension already dropped")
	// ErrDuplicatedTimerID 同名扩展下逻辑定时器id冲突
	ErrDuplicatedTimerID = errors.New("duplicated timer id")
	// ErrNoMoreTimerToken 定时器槽位耗尽
	ErrNoMoreTimerToken = errors.New("no more timer token")
)

// Extension is a pluggable protocol module. An implementation registers
// with the Client under its unique Name and afterwards only ever hears
// from the node through these callbacks.
type Extension interface {
	Name() string
	NeedEncryption() bool
	Versions() []uint64

	OnInitialize(api API)
	OnNodeAdded(id PeerID, version uint64)
	OnNodeRemoved(id PeerID)
	OnMessage(id PeerID, data []byte)
	OnTimeout(timerID TimerID)
	OnLocalMessage(data []byte)
	OnTimerSetAllowed(timerID TimerID)
	OnTimerSetDenied(timerID TimerID, reason error)
}

// API is the outbound capability set handed to an extension at
// initialization. Send and SendLocalMessage are fire-and-forget; the
// timer calls only acknowledge that the request was queued, the logical
// accept or deny arrives later via OnTimerSetAllowed/OnTimerSetDenied.
type API interface {
	Send(id PeerID, data []byte)
	SetTimer(timerID TimerID, d time.Duration) error
	SetTimerOnce(timerID TimerID, d time.Duration) error
	ClearTimer(timerID TimerID) error
	SendLocalMessage(data []byte)
}

// Envelope is the outbound network message handed to the transport
type Envelope struct {
	PeerID         PeerID
	ExtensionName  string
	NeedEncryption bool
	Data           []byte
}
