package pdftest

import (
	"bytes"
	"testing"
)

func TestBytes(t *testing.T) {
	one, err := Bytes(Doc{Title: "One"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(one, []byte("%PDF-")) {
		t.Errorf("missing PDF header: %q", one[:8])
	}

	three, err := Bytes(Doc{Pages: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(three) <= len(one) {
		t.Errorf("three pages (%d bytes) should outweigh one (%d bytes)", len(three), len(one))
	}
}

func TestWrite(t *testing.T) {
	path := Write(t, t.TempDir(), "doc.pdf", Doc{Pages: 2})
	if path == "" {
		t.Fatal("empty path")
	}
}
