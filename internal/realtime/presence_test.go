package realtime

import "testing"

// stubConn is a minimal Conn for presence tests; identity is what matters.
type stubConn struct {
	delivered []OutboundEvent
	accept    bool
}

func (c *stubConn) Deliver(evt OutboundEvent) bool {
	c.delivered = append(c.delivered, evt)
	return c.accept
}

func TestPresence_JoinLookup(t *testing.T) {
	p := NewPresence()
	c := &stubConn{}

	if _, ok := p.Lookup("u1"); ok {
		t.Fatalf("empty table must miss")
	}
	p.Join("u1", c)
	got, ok := p.Lookup("u1")
	if !ok || got != Conn(c) {
		t.Fatalf("lookup after join: got %v ok=%v", got, ok)
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d; want 1", p.Len())
	}
}

func TestPresence_IgnoresBadInput(t *testing.T) {
	p := NewPresence()
	p.Join("", &stubConn{})
	p.Join("u1", nil)
	p.Remove(nil)
	if p.Len() != 0 {
		t.Fatalf("bad joins must not bind: Len = %d", p.Len())
	}
}

func TestPresence_LastJoinWins(t *testing.T) {
	p := NewPresence()
	first := &stubConn{}
	second := &stubConn{}

	p.Join("u1", first)
	p.Join("u1", second)

	got, ok := p.Lookup("u1")
	if !ok || got != Conn(second) {
		t.Fatalf("newer join must win: got %v", got)
	}
	if p.Len() != 1 {
		t.Fatalf("rebind must not grow the table: Len = %d", p.Len())
	}
}

func TestPresence_RejoinSameConnIsIdempotent(t *testing.T) {
	p := NewPresence()
	c := &stubConn{}

	p.Join("u1", c)
	p.Join("u1", c)

	if got, ok := p.Lookup("u1"); !ok || got != Conn(c) {
		t.Fatalf("rejoin must keep the binding: %v ok=%v", got, ok)
	}
	if p.Len() != 1 {
		t.Fatalf("rejoin must not grow the table: Len = %d", p.Len())
	}

	// A single Remove clears it; the double join left no second binding.
	p.Remove(c)
	if _, ok := p.Lookup("u1"); ok {
		t.Fatalf("remove after rejoin must unbind")
	}
	if p.Len() != 0 {
		t.Fatalf("Len = %d; want 0", p.Len())
	}
}

func TestPresence_RemoveByIdentity(t *testing.T) {
	p := NewPresence()
	old := &stubConn{}
	fresh := &stubConn{}

	p.Join("u1", old)
	p.Join("u1", fresh)

	// The superseded connection closing must not evict the live one.
	p.Remove(old)
	if got, ok := p.Lookup("u1"); !ok || got != Conn(fresh) {
		t.Fatalf("stale remove evicted the live binding: %v ok=%v", got, ok)
	}

	p.Remove(fresh)
	if _, ok := p.Lookup("u1"); ok {
		t.Fatalf("live connection removal must unbind the user")
	}
}
