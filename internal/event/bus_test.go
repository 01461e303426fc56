package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	bus := New()
	var order []string
	Subscribe(bus, OnProgressStart, "a", func(e *Event[ProgressStart]) { order = append(order, "a:"+e.Payload.ID) })
	Subscribe(bus, OnProgressStart, "b", func(e *Event[ProgressStart]) { order = append(order, "b:"+e.Payload.ID) })
	Subscribe(bus, OnProgressStop, "c", func(e *Event[ProgressStop]) { order = append(order, "c") })

	Publish(bus, OnProgressStart, ProgressStart{ID: "x"})

	assert.Equal(t, []string{"a:x", "b:x"}, order)
}

func TestPublish_PanickingHandlerIsIsolated(t *testing.T) {
	bus := New()
	var reached bool
	Subscribe(bus, OnProcessError, "broken", func(e *Event[ProcessError]) { panic("nil screen") })
	Subscribe(bus, OnProcessError, "shell", func(e *Event[ProcessError]) { reached = true })

	ev := Publish(bus, OnProcessError, ProcessError{Message: "boom"})

	assert.True(t, reached, "delivery must continue after a failing handler")
	require.Len(t, ev.HandlerErrors(), 1)
	var herr *HandlerError
	require.True(t, errors.As(ev.HandlerErrors()[0], &herr))
	assert.Equal(t, "broken", herr.Owner)
	assert.Equal(t, NameProcessError, herr.Name)
	assert.Contains(t, herr.Error(), "nil screen")
}

func TestPublish_PreventDefault(t *testing.T) {
	bus := New()
	ev := Publish(bus, OnExternalLink, ExternalLink{URL: "https://example.com"})
	assert.False(t, ev.DefaultPrevented())

	Subscribe(bus, OnExternalLink, "shell", func(e *Event[ExternalLink]) { e.PreventDefault() })
	ev = Publish(bus, OnExternalLink, ExternalLink{URL: "https://example.com"})
	assert.True(t, ev.DefaultPrevented())
}

func TestSubscription_Release(t *testing.T) {
	bus := New()
	var calls int
	sub := Subscribe(bus, OnAuthSuccess, "screen", func(e *Event[AuthSuccess]) { calls++ })

	Publish(bus, OnAuthSuccess, AuthSuccess{Scope: "drive"})
	sub.Release()
	sub.Release()
	Publish(bus, OnAuthSuccess, AuthSuccess{Scope: "drive"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Count(NameAuthSuccess))
}

func TestSubscription_ReleasedDuringDeliveryIsSkipped(t *testing.T) {
	bus := New()
	var second *Subscription
	var secondCalled bool
	Subscribe(bus, OnAuthSignedOut, "first", func(e *Event[AuthSignedOut]) { second.Release() })
	second = Subscribe(bus, OnAuthSignedOut, "second", func(e *Event[AuthSignedOut]) { secondCalled = true })

	Publish(bus, OnAuthSignedOut, AuthSignedOut{Scope: "drive"})

	assert.False(t, secondCalled)
}

func TestGroup_ReleasesAll(t *testing.T) {
	bus := New()
	var g Group
	g.Add(Subscribe(bus, OnProgressStart, "shell", func(*Event[ProgressStart]) {}))
	g.Add(Subscribe(bus, OnProgressStop, "shell", func(*Event[ProgressStop]) {}))
	assert.Equal(t, 2, g.Len())

	g.Release()

	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, bus.Count(NameProgressStart))
	assert.Equal(t, 0, bus.Count(NameProgressStop))
}

func TestProcessLink_Respond(t *testing.T) {
	bus := New()
	Subscribe(bus, OnProcessLink, "apic", func(e *Event[*ProcessLink]) {
		e.PreventDefault()
		e.Payload.Respond(nil)
	})
	req := &ProcessLink{URL: "http://x"}
	ev := Publish(bus, OnProcessLink, req)
	assert.True(t, ev.DefaultPrevented())
	assert.Nil(t, req.Result())
	assert.Equal(t, "api-process-link", OnProcessLink.String())
}
