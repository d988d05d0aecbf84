package p2p

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"

	"github.com/gurrpi/codechain/common/utils"
	"github.com/gurrpi/codechain/crypto/hash"
	netBase "github.com/gurrpi/codechain/network/base"
)

// MessageVersion 当前p2p消息格式版本
const MessageVersion uint32 = 1

// ProtocolVersion is negotiated during handshake and broadcast to
// extensions on node-added events.
const ProtocolVersion uint64 = 1

const (
	TypeHandshake = "handshake"
	TypeExtension = "extension"
)

var (
	ErrMessageChecksum   = errors.New("verify checksum error")
	ErrMessageDecompress = errors.New("decompress error")
	ErrMessageOversize   = errors.New("message oversize")
)

type MessageHeader struct {
	Version        uint32 `json:"version"`
	Logid          string `json:"logid"`
	Type           string `json:"type"`
	Extension      string `json:"extension,omitempty"`
	From           string `json:"from"`
	NeedEncryption bool   `json:"needEncryption,omitempty"`
	EnableCompress bool   `json:"enableCompress,omitempty"`
	DataCheckSum   uint32 `json:"dataCheckSum"`
}

type Message struct {
	Header MessageHeader `json:"header"`
	Data   []byte        `json:"data,omitempty"`
}

// HandshakeInfo rides the first message of every connection
type HandshakeInfo struct {
	Address         string             `json:"address"`
	ProtocolVersion uint64             `json:"protocolVersion"`
	Extensions      []ExtensionVersion `json:"extensions,omitempty"`
}

// ExtensionVersion one extension's supported protocol versions
type ExtensionVersion struct {
	Name     string   `json:"name"`
	Versions []uint64 `json:"versions,omitempty"`
}

// NewExtensionMessage wrap an outbound envelope into a wire message
func NewExtensionMessage(from string, env netBase.Envelope) *Message {
	msg := &Message{
		Header: MessageHeader{
			Version:        MessageVersion,
			Logid:          utils.GenLogId(),
			Type:           TypeExtension,
			Extension:      env.ExtensionName,
			From:           from,
			NeedEncryption: env.NeedEncryption,
		},
		Data: env.Data,
	}

	Compress(msg)
	msg.Header.DataCheckSum = Checksum(msg)
	return msg
}

// NewHandshakeMessage advertise our listen address and extension versions
func NewHandshakeMessage(from string, extensions []ExtensionVersion) (*Message, error) {
	info := HandshakeInfo{
		Address:         from,
		ProtocolVersion: ProtocolVersion,
		Extensions:      extensions,
	}
	data, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Header: MessageHeader{
			Version: MessageVersion,
			Logid:   utils.GenLogId(),
			Type:    TypeHandshake,
			From:    from,
		},
		Data: data,
	}

	Compress(msg)
	msg.Header.DataCheckSum = Checksum(msg)
	return msg, nil
}

// Payload verify the checksum and return the decompressed message data
func Payload(msg *Message) ([]byte, error) {
	if !VerifyChecksum(msg) {
		return nil, ErrMessageChecksum
	}

	data, err := Decompress(msg)
	if err != nil {
		return nil, ErrMessageDecompress
	}

	return data, nil
}

func unmarshalHandshake(data []byte, info *HandshakeInfo) error {
	return json.Unmarshal(data, info)
}

// Checksum calculate checksum of message
func Checksum(msg *Message) uint32 {
	return crc32.ChecksumIEEE(msg.Data)
}

// VerifyChecksum verify the checksum of message
func VerifyChecksum(msg *Message) bool {
	return crc32.ChecksumIEEE(msg.Data) == msg.Header.DataCheckSum
}

// Compress compress msg
func Compress(msg *Message) *Message {
	if msg == nil || len(msg.Data) == 0 || msg.Header.EnableCompress {
		return msg
	}
	msg.Data = snappy.Encode(nil, msg.Data)
	msg.Header.EnableCompress = true
	return msg
}

// Decompress decompress msg
func Decompress(msg *Message) ([]byte, error) {
	if msg == nil {
		return []byte{}, errors.New("param error")
	}

	if !msg.Header.EnableCompress {
		return msg.Data, nil
	}

	return snappy.Decode(nil, msg.Data)
}

// MessageKey identify one send for the handled-message dedup cache. The
// logid keeps distinct sends of identical content apart, only re-delivered
// copies of the same send share a key.
func MessageKey(msg *Message) string {
	buf := new(bytes.Buffer)
	buf.WriteString(msg.Header.Type)
	buf.WriteString(msg.Header.Extension)
	buf.WriteString(msg.Header.From)
	buf.WriteString(msg.Header.Logid)
	buf.WriteString(fmt.Sprintf("%d", msg.Header.DataCheckSum))
	return utils.F(hash.DoubleSha256(buf.Bytes()))
}

// WriteMessage frame the message with a 4-byte length prefix
func WriteMessage(w io.Writer, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err = w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadMessage read one length-prefixed message, bounded by maxSize bytes
func ReadMessage(r io.Reader, maxSize int64) (*Message, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if maxSize > 0 && int64(size) > maxSize {
		return nil, ErrMessageOversize
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	msg := new(Message)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
