package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	Namespace = "codechain"

	SubsystemNetwork = "network"

	LabelExtension  = "extension"
	LabelCallMethod = "method"
	LabelReason     = "reason"
)

var DefBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// network
var (
	// 扩展回调分发量
	ExtensionDispatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "extension_dispatch_total",
			Help:      "Total number of events dispatched to extensions.",
		},
		[]string{LabelExtension, LabelCallMethod})
	// 目标扩展不存在而丢弃的事件量
	ExtensionDropCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "extension_drop_total",
			Help:      "Total number of events dropped for unknown extensions.",
		},
		[]string{LabelCallMethod})
	// 活跃定时器槽位数
	TimerSlotGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "timer_slots_active",
			Help:      "Number of active timer slots.",
		})
	// 定时器申请拒绝量
	TimerDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "timer_denied_total",
			Help:      "Total number of denied timer requests.",
		},
		[]string{LabelReason})

	NetworkMsgSendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "msg_send_total",
			Help:      "Total number of P2P sent message.",
		},
		[]string{LabelExtension})
	NetworkMsgSendBytesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "msg_send_bytes",
			Help:      "Total size of P2P sent message.",
		},
		[]string{LabelExtension})
	NetworkMsgReceivedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "msg_received_total",
			Help:      "Total number of P2P received message.",
		},
		[]string{LabelExtension})
	NetworkMsgReceivedBytesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemNetwork,
			Name:      "msg_received_bytes",
			Help:      "Total size of P2P received message.",
		},
		[]string{LabelExtension})
)

func RegisterMetrics() {
	prometheus.MustRegister(ExtensionDispatchCounter)
	prometheus.MustRegister(ExtensionDropCounter)
	prometheus.MustRegister(TimerSlotGauge)
	prometheus.MustRegister(TimerDeniedCounter)
	prometheus.MustRegister(NetworkMsgSendCounter)
	prometheus.MustRegister(NetworkMsgSendBytesCounter)
	prometheus.MustRegister(NetworkMsgReceivedCounter)
	prometheus.MustRegister(NetworkMsgReceivedBytesCounter)
}
