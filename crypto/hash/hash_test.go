package hash

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestHashUsingSha256(t *testing.T) {
	got := HashUsingSha256([]byte("abc"))
	want, _ := hex.DecodeString("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	if !bytes.Equal(got, want) {
		t.Fatalf("sha256 mismatch:%x", got)
	}
}

func TestDoubleSha256(t *testing.T) {
	data := []byte("abc")
	want := HashUsingSha256(HashUsingSha256(data))
	if !bytes.Equal(DoubleSha256(data), want) {
		t.Fatal("double sha256 mismatch")
	}
}

func TestRipemd160Sha256(t *testing.T) {
	got := Ripemd160Sha256([]byte("abc"))
	if len(got) != 20 {
		t.Fatalf("unexpected digest size:%d", len(got))
	}
	if !bytes.Equal(got, HashUsingRipemd160(HashUsingSha256([]byte("abc")))) {
		t.Fatal("composition mismatch")
	}
}
