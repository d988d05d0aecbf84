package p2p

import (
	"bytes"
	"testing"

	netBase "github.com/gurrpi/codechain/network/base"
)

func TestExtensionMessageRoundtrip(t *testing.T) {
	env := netBase.Envelope{
		PeerID:        "peer1",
		ExtensionName: "keep-alive",
		Data:          []byte("ping"),
	}
	msg := NewExtensionMessage("127.0.0.1:3485", env)

	if msg.Header.Type != TypeExtension {
		t.Fatalf("unexpected type:%s", msg.Header.Type)
	}
	if msg.Header.Extension != "keep-alive" {
		t.Fatalf("unexpected extension:%s", msg.Header.Extension)
	}
	if !msg.Header.EnableCompress {
		t.Fatal("payload not compressed")
	}

	data, err := Payload(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("ping")) {
		t.Fatalf("payload mismatch:%s", data)
	}
}

func TestPayloadChecksumMismatch(t *testing.T) {
	env := netBase.Envelope{PeerID: "peer1", ExtensionName: "e1", Data: []byte("data")}
	msg := NewExtensionMessage("127.0.0.1:3485", env)
	msg.Header.DataCheckSum++

	if _, err := Payload(msg); err != ErrMessageChecksum {
		t.Fatalf("expect ErrMessageChecksum got %v", err)
	}
}

func TestHandshakeMessage(t *testing.T) {
	extensions := []ExtensionVersion{
		{Name: "e1", Versions: []uint64{0}},
		{Name: "e2", Versions: []uint64{0, 1}},
	}
	msg, err := NewHandshakeMessage("127.0.0.1:3485", extensions)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Header.Type != TypeHandshake {
		t.Fatalf("unexpected type:%s", msg.Header.Type)
	}

	data, err := Payload(msg)
	if err != nil {
		t.Fatal(err)
	}
	info := new(HandshakeInfo)
	if err = unmarshalHandshake(data, info); err != nil {
		t.Fatal(err)
	}
	if info.Address != "127.0.0.1:3485" {
		t.Fatalf("unexpected address:%s", info.Address)
	}
	if info.ProtocolVersion != ProtocolVersion {
		t.Fatalf("unexpected protocol version:%d", info.ProtocolVersion)
	}
	if len(info.Extensions) != 2 || info.Extensions[1].Name != "e2" {
		t.Fatalf("extensions lost in handshake:%+v", info.Extensions)
	}
}

func TestWireFraming(t *testing.T) {
	env := netBase.Envelope{PeerID: "peer1", ExtensionName: "e1", Data: []byte("hello")}
	msg := NewExtensionMessage("127.0.0.1:3485", env)

	buf := new(bytes.Buffer)
	if err := WriteMessage(buf, msg); err != nil {
		t.Fatal(err)
	}

	got, err := ReadMessage(buf, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if got.Header != msg.Header {
		t.Fatalf("header mismatch:%+v vs %+v", got.Header, msg.Header)
	}
	data, err := Payload(got)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Fatalf("payload mismatch:%s", data)
	}
}

func TestReadMessageOversize(t *testing.T) {
	env := netBase.Envelope{PeerID: "peer1", ExtensionName: "e1", Data: bytes.Repeat([]byte("x"), 1024)}
	msg := NewExtensionMessage("127.0.0.1:3485", env)

	buf := new(bytes.Buffer)
	if err := WriteMessage(buf, msg); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadMessage(buf, 16); err != ErrMessageOversize {
		t.Fatalf("expect ErrMessageOversize got %v", err)
	}
}

func TestMessageKeyPerSend(t *testing.T) {
	env := netBase.Envelope{PeerID: "peer1", ExtensionName: "keep-alive", Data: []byte("ping")}

	// two sends of the same payload from the same peer are distinct
	// messages, the dedup cache must not swallow the second one
	m1 := NewExtensionMessage("127.0.0.1:3485", env)
	m2 := NewExtensionMessage("127.0.0.1:3485", env)
	if m1.Header.Logid == m2.Header.Logid {
		t.Fatal("sends share a logid")
	}
	if MessageKey(m1) == MessageKey(m2) {
		t.Fatal("distinct sends share dedup key")
	}

	// a re-delivered copy of the same send keeps its key
	buf := new(bytes.Buffer)
	if err := WriteMessage(buf, m1); err != nil {
		t.Fatal(err)
	}
	copied, err := ReadMessage(buf, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if MessageKey(copied) != MessageKey(m1) {
		t.Fatal("re-delivered copy changed dedup key")
	}
}
