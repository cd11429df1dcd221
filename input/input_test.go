package input

import "testing"

func TestRelayDispatchAndStop(t *testing.T) {
	r := NewRelay()
	var got []KeyEvent
	stop, err := r.Listen(func(ev KeyEvent) { got = append(got, ev) })
	if err != nil {
		t.Fatal(err)
	}
	if !r.Listening() {
		t.Fatal("Listening() = false after Listen")
	}

	r.Dispatch(KeyEvent{Code: "KeyA", Down: true})
	stop()
	r.Dispatch(KeyEvent{Code: "KeyA"})

	if len(got) != 1 || got[0].Code != "KeyA" || !got[0].Down {
		t.Errorf("got %+v, want one KeyA down", got)
	}
	if r.Listening() {
		t.Error("Listening() = true after stop")
	}
}

func TestRelayOrder(t *testing.T) {
	r := NewRelay()
	var order []int
	r.Listen(func(KeyEvent) { order = append(order, 1) })
	r.Listen(func(KeyEvent) { order = append(order, 2) })
	r.Dispatch(KeyEvent{})
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}
