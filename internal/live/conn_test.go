package live

import "testing"

func TestChannelConnDropsOldestWhenFull(t *testing.T) {
	conn := NewChannelConn("c1", 2)

	conn.Send(ErrorEvent{Message: "one"})
	conn.Send(ErrorEvent{Message: "two"})
	conn.Send(ErrorEvent{Message: "three"}) // overflows, "one" is dropped

	first := (<-conn.Events()).(ErrorEvent)
	second := (<-conn.Events()).(ErrorEvent)
	if first.Message != "two" || second.Message != "three" {
		t.Errorf("Got %q, %q; want the oldest event dropped", first.Message, second.Message)
	}

	select {
	case evt := <-conn.Events():
		t.Errorf("Unexpected extra event: %+v", evt)
	default:
	}
}

func TestChannelConnSendAfterClose(t *testing.T) {
	conn := NewChannelConn("c1", 2)
	conn.Close()
	conn.Close() // safe to call twice

	conn.Send(ErrorEvent{Message: "late"})

	select {
	case evt := <-conn.Events():
		t.Errorf("Send after Close delivered %+v", evt)
	default:
	}

	select {
	case <-conn.Done():
	default:
		t.Error("Done() not closed after Close()")
	}
}

func TestConnRegistry(t *testing.T) {
	reg := NewConnRegistry()

	c1 := NewChannelConn("c1", 4)
	c2 := NewChannelConn("c2", 4)
	reg.Register(c1)
	reg.Register(c2)

	if reg.Count() != 2 {
		t.Errorf("Count() = %d, want 2", reg.Count())
	}
	if got, ok := reg.Get("c1"); !ok || got.ID() != "c1" {
		t.Error("Get() did not return the registered connection")
	}

	reg.Unregister("c1")
	if _, ok := reg.Get("c1"); ok {
		t.Error("Unregistered connection still resolvable")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d after unregister, want 1", reg.Count())
	}
}
