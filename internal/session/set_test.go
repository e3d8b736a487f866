package session

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/peerline/internal/testutil/testlog"
)

func TestCloseAllSweepsSessionsAddedDuringShutdown(t *testing.T) {
	testlog.Start(t)
	h := newHooks()

	a, aPeer := net.Pipe()
	defer aPeer.Close()
	first, _ := start(t, a, h)

	finished := make(chan struct{})
	go func() {
		CloseAll(h.set, "bye")
		close(finished)
	}()

	// The first pass is blocked writing End to a peer that is not reading yet.
	deadline := time.Now().Add(5 * time.Second)
	for !first.closing() {
		if time.Now().After(deadline) {
			t.Fatalf("CloseAll never reached the first session")
		}
		time.Sleep(time.Millisecond)
	}

	b, bPeer := net.Pipe()
	defer bPeer.Close()
	late, _ := start(t, b, h)

	go func() { _, _ = io.Copy(io.Discard, aPeer) }()
	go func() { _, _ = io.Copy(io.Discard, bPeer) }()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatalf("CloseAll did not return")
	}
	waitDone(t, first)
	waitDone(t, late)
	if n := h.set.Len(); n != 0 {
		t.Fatalf("expected empty set, got %d", n)
	}
	if normal, abrupt, _ := h.counts(); len(normal) != 0 || abrupt != 0 {
		t.Fatalf("no hook should fire on local shutdown, normal=%v abrupt=%d", normal, abrupt)
	}
}
