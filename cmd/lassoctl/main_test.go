package main

import (
	"strings"
	"testing"

	"github.com/fortytw2/leaktest"
)

func TestReadBytesClosesOnEOF(t *testing.T) {
	defer leaktest.Check(t)()

	ch := readBytes(strings.NewReader("ab"))
	var got []byte
	for b := range ch {
		got = append(got, b)
	}
	if string(got) != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}
