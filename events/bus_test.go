package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan CrystalBonded, 1)

	unsub := bus.Subscribe(func(e CrystalBonded) {
		received <- e
	})
	defer unsub()

	bus.Publish(CrystalBonded{UID: "04:AB", Name: "Subdued", Preset: 1, R: 200})

	select {
	case got := <-received:
		if got.UID != "04:AB" || got.Preset != 1 || got.R != 200 {
			t.Errorf("received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestBus_TypesAreSeparate(t *testing.T) {
	bus := New()
	power := make(chan PowerChanged, 1)
	unsub := bus.Subscribe(func(e PowerChanged) { power <- e })
	defer unsub()

	bus.Publish(ReaderStateChanged{State: "active"})
	bus.Publish(PowerChanged{On: true})

	select {
	case got := <-power:
		if !got.On {
			t.Errorf("received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	select {
	case got := <-power:
		t.Fatalf("unexpected %+v", got)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CrystalRemoved, 1)

	unsub := bus.Subscribe(func(e CrystalRemoved) {
		received <- e
	})

	bus.Publish(CrystalRemoved{UID: "01"})
	<-received

	unsub()

	bus.Publish(CrystalRemoved{UID: "02"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}
