package hash

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

func HashUsingSha256(data []byte) []byte {
	h := sha256.New()
	h.Write(data)
	out := h.Sum(nil)

	return out
}

// 执行2次SHA256，这是为了防止SHA256算法被攻破。
func DoubleSha256(data []byte) []byte {
	return HashUsingSha256(HashUsingSha256(data))
}

// Ripemd160，这种hash算法可以缩短长度
func HashUsingRipemd160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	out := h.Sum(nil)

	return out
}

// Ripemd160Sha256 digests data with sha256 first and shortens it with ripemd160,
// used to derive compact peer identifiers.
func Ripemd160Sha256(data []byte) []byte {
	return HashUsingRipemd160(HashUsingSha256(data))
}
