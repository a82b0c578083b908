package usecase

import (
	"testing"

	"github.com/mmuslimabdulj/meet-signal/internal/domain"
)

func TestCallTable_ConnectIsSymmetric(t *testing.T) {
	tbl := NewCallTable()

	if torn := tbl.Connect("alice", "ca", "bob", "cb"); len(torn) != 0 {
		t.Errorf("Expected no teardowns, got %v", torn)
	}

	a, ok := tbl.Active("alice")
	if !ok || a.Peer != "bob" || a.PeerConn != "cb" {
		t.Errorf("Unexpected alice row: %+v (ok=%v)", a, ok)
	}
	b, ok := tbl.Active("bob")
	if !ok || b.Peer != "alice" || b.PeerConn != "ca" {
		t.Errorf("Unexpected bob row: %+v (ok=%v)", b, ok)
	}
	if !tbl.Busy("alice") || !tbl.Busy("bob") {
		t.Error("Both parties should be busy")
	}
	if tbl.Busy("carol") {
		t.Error("carol is not in a call")
	}
	if tbl.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", tbl.Len())
	}
}

func TestCallTable_ConnectTearsDownThirdParty(t *testing.T) {
	tbl := NewCallTable()
	tbl.Connect("alice", "ca", "bob", "cb")

	torn := tbl.Connect("alice", "ca", "carol", "cc")
	if len(torn) != 1 {
		t.Fatalf("Expected 1 teardown, got %d", len(torn))
	}
	if torn[0].Party != "alice" || torn[0].Session.Peer != "bob" {
		t.Errorf("Unexpected teardown: %+v", torn[0])
	}

	if tbl.Busy("bob") {
		t.Error("bob's stale row should be gone")
	}
	if s, _ := tbl.Active("alice"); s.Peer != "carol" {
		t.Errorf("alice should now be with carol, got %s", s.Peer)
	}
	if s, _ := tbl.Active("carol"); s.Peer != "alice" {
		t.Errorf("carol should be with alice, got %s", s.Peer)
	}
	if tbl.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", tbl.Len())
	}
}

func TestCallTable_ReconnectSamePairKeepsRows(t *testing.T) {
	tbl := NewCallTable()
	tbl.Connect("alice", "ca", "bob", "cb")

	// Answer arrives again after a page reload on alice's side
	torn := tbl.Connect("alice", "ca2", "bob", "cb")
	if len(torn) != 0 {
		t.Errorf("Same pair should not tear anything down, got %v", torn)
	}
	if s, _ := tbl.Active("bob"); s.PeerConn != "ca2" {
		t.Errorf("Expected refreshed handle ca2, got %s", s.PeerConn)
	}
}

func TestCallTable_End(t *testing.T) {
	tbl := NewCallTable()
	tbl.Connect("alice", "ca", "bob", "cb")

	if !tbl.End("bob", "alice") {
		t.Error("Expected End to remove the pair")
	}
	if tbl.Busy("alice") || tbl.Busy("bob") {
		t.Error("Both rows should be removed")
	}
	if tbl.End("alice", "bob") {
		t.Error("Ending twice should report nothing removed")
	}
}

func TestCallTable_EndIgnoresOtherPairs(t *testing.T) {
	tbl := NewCallTable()
	tbl.Connect("alice", "ca", "bob", "cb")
	tbl.Connect("carol", "cc", "dave", "cd")

	if tbl.End("alice", "carol") {
		t.Error("alice and carol are not in a call together")
	}
	if tbl.Len() != 4 {
		t.Errorf("Expected untouched table, got %d rows", tbl.Len())
	}
}

func TestCallTable_EndWithConn(t *testing.T) {
	tbl := NewCallTable()
	tbl.Connect("alice", "ca", "bob", "cb")

	if tbl.EndWithConn("alice", "wrong") {
		t.Error("Mismatched handle should remove nothing")
	}
	if !tbl.EndWithConn("alice", "cb") {
		t.Fatal("Expected EndWithConn to match bob's stored handle")
	}
	if tbl.Len() != 0 {
		t.Errorf("Expected empty table, got %d rows", tbl.Len())
	}
	if tbl.EndWithConn("alice", "cb") {
		t.Error("Nothing left to end")
	}
}

func TestCallTable_Drop(t *testing.T) {
	tbl := NewCallTable()
	tbl.Connect("alice", "ca", "bob", "cb")
	tbl.Connect("carol", "cc", "dave", "cd")

	peers := tbl.Drop("alice")
	if len(peers) != 1 {
		t.Fatalf("Expected 1 former peer, got %d", len(peers))
	}
	if peers[0].Peer != "bob" || peers[0].PeerConn != "cb" {
		t.Errorf("Unexpected former peer: %+v", peers[0])
	}
	if tbl.Busy("alice") || tbl.Busy("bob") {
		t.Error("alice's call should be fully removed")
	}
	if !tbl.Busy("carol") || !tbl.Busy("dave") {
		t.Error("Unrelated call must survive")
	}

	if peers := tbl.Drop("nobody"); len(peers) != 0 {
		t.Errorf("Dropping an idle identity returns nothing, got %v", peers)
	}
}

func TestCallTable_DropRemovesDanglingRows(t *testing.T) {
	tbl := NewCallTable()
	tbl.mu.Lock()
	// A row pointing at alice without its mirror
	tbl.sessions["bob"] = domain.CallSession{Peer: "alice", PeerConn: "ca"}
	tbl.sessions["carol"] = domain.CallSession{Peer: "alice", PeerConn: "ca"}
	tbl.mu.Unlock()

	peers := tbl.Drop("alice")
	if len(peers) != 2 {
		t.Fatalf("Expected 2 former peers, got %d", len(peers))
	}
	if tbl.Len() != 0 {
		t.Errorf("Every row pointing at alice should be removed, %d left", tbl.Len())
	}
}
