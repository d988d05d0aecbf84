package solo

import (
	consBase "github.com/gurrpi/codechain/consensus/base"
	netBase "github.com/gurrpi/codechain/network/base"
)

// ExtensionName solo引擎网络扩展名
const ExtensionName = "solo"

// Solo is a consensus engine which does not provide any consensus
// mechanism: every block seals locally and every local seal verifies.
type Solo struct{}

var _ consBase.ConsensusEngine = (*Solo)(nil)

func New() *Solo {
	return &Solo{}
}

func (t *Solo) Name() string {
	return "Solo"
}

func (t *Solo) SealsInternally() bool {
	return true
}

// GenerateSeal declines empty blocks, seals everything else with no fields
func (t *Solo) GenerateSeal(block consBase.Sealable, _ *consBase.Header) consBase.Seal {
	if block.TxCount() == 0 {
		return consBase.SealNone
	}

	return consBase.NewRegularSeal(nil)
}

func (t *Solo) VerifyLocalSeal(_ *consBase.Header) error {
	return nil
}

func (t *Solo) NetworkExtension() netBase.Extension {
	return &Extension{}
}

// Extension is the solo engine's network module. It claims the protocol
// name but reacts to nothing, the minimal implementer of the extension
// capability set.
type Extension struct{}

var _ netBase.Extension = (*Extension)(nil)

func (t *Extension) Name() string {
	return ExtensionName
}

func (t *Extension) NeedEncryption() bool {
	return false
}

func (t *Extension) Versions() []uint64 {
	return []uint64{0}
}

func (t *Extension) OnInitialize(_ netBase.API) {}

func (t *Extension) OnNodeAdded(_ netBase.PeerID, _ uint64) {}

func (t *Extension) OnNodeRemoved(_ netBase.PeerID) {}

func (t *Extension) OnMessage(_ netBase.PeerID, _ []byte) {}

func (t *Extension) OnTimeout(_ netBase.TimerID) {}

func (t *Extension) OnLocalMessage(_ []byte) {}

func (t *Extension) OnTimerSetAllowed(_ netBase.TimerID) {}

func (t *Extension) OnTimerSetDenied(_ netBase.TimerID, _ error) {}
