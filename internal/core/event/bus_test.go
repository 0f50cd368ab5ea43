package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type hit struct{ Damage int }
type heal struct{ Amount int }

func TestBusDeliversNextStep(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(h hit) { got = append(got, h.Damage) })

	Emit(b, hit{Damage: 3})
	b.Publish(hit{Damage: 5})
	assert.Equal(t, 2, b.Pending())
	b.DispatchAll()
	assert.Empty(t, got, "nothing is visible before a swap")

	b.SwapBuffers()
	assert.Equal(t, 0, b.Pending())
	b.DispatchAll()
	assert.Equal(t, []int{3, 5}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{3, 5}, got, "events are delivered once")
}

func TestBusPublicationOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(hit) { order = append(order, "hit") })
	Subscribe(b, func(heal) { order = append(order, "heal") })
	Subscribe(b, func(hit) { order = append(order, "hit-2") })

	Emit(b, heal{})
	Emit(b, hit{})
	Emit(b, heal{})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, []string{"heal", "hit", "hit-2", "heal"}, order)
}

func TestBusHandlerEmitsForLater(t *testing.T) {
	b := NewBus()
	var heals int
	Subscribe(b, func(h hit) { Emit(b, heal{Amount: h.Damage}) })
	Subscribe(b, func(heal) { heals++ })

	Emit(b, hit{Damage: 1})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 0, heals)
	assert.Equal(t, 1, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 1, heals)
}

func TestBusUnsubscribedTypesAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, "ignored")
	b.SwapBuffers()
	assert.NotPanics(t, b.DispatchAll)
}
