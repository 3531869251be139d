package wrs_test

import (
	"testing"

	"github.com/RobertWHurst/wrs"
	"github.com/stretchr/testify/assert"
)

func TestComposeArrayWithPredicate(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose([]any{0, 1, wrs.Derivation(func(x any) any {
		n, _ := x.(int)
		return n*2 == 12
	})}, func(*wrs.Event) { count++ })

	composer.Decompose(0, nil)
	assert.Equal(t, 1, count)
	composer.Decompose(1, nil)
	assert.Equal(t, 2, count)
	composer.Decompose(2, nil)
	assert.Equal(t, 2, count)
}

func TestComposePredicate(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose([]any{0, 1, wrs.Predicate(func(x any) bool {
		n, _ := x.(int)
		return n*2 == 12
	})}, func(*wrs.Event) { count++ })

	assert.Equal(t, 1, composer.Decompose(0, nil))
	assert.Equal(t, 1, composer.Decompose(1, nil))
	assert.Equal(t, 1, composer.Decompose(6, nil))
	assert.Equal(t, 0, composer.Decompose(2, nil))
	assert.Equal(t, 3, count)
}

func TestComposeScalarUsesLooseNumericEquality(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose(6, func(*wrs.Event) { count++ })

	composer.Decompose(6.0, nil)
	composer.Decompose(int64(6), nil)
	composer.Decompose("6", nil)

	assert.Equal(t, 2, count)
}

func TestDecomposeArrayValue(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose("admin", func(*wrs.Event) { count++ })

	composer.Decompose([]string{"user", "admin"}, nil)
	composer.Decompose([]string{"user"}, nil)

	assert.Equal(t, 1, count)
}

func TestDecomposeFunctionValueFixedPoint(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose(4, func(*wrs.Event) { count++ })

	composer.Decompose(wrs.Derivation(func(x any) any { return x }), nil)
	composer.Decompose(wrs.Derivation(func(x any) any { return 5 }), nil)

	assert.Equal(t, 1, count)
}

func TestDecomposeEventData(t *testing.T) {
	composer := wrs.NewComposer()

	var event *wrs.Event
	composer.Compose("x", func(e *wrs.Event) { event = e })

	context := map[string]any{"user": "alice"}
	composer.Decompose("x", context, wrs.WithName("caller"))

	assert.Equal(t, wrs.EventComposer, event.Type())
	assert.Equal(t, "caller", event.Name())
	assert.Equal(t, map[string]any{"user": "alice", "composer": "x"}, event.Data())
	assert.Equal(t, map[string]any{"user": "alice"}, context)
}

func TestComposeWithTimes(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose("x", func(*wrs.Event) { count++ }, wrs.WithTimes(1))

	composer.Decompose("x", nil)
	composer.Decompose("x", nil)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, composer.Len())
}

func TestComposeWithoutCallComparesTheFunction(t *testing.T) {
	composer := wrs.NewComposer()

	count := 0
	composer.Compose(wrs.Predicate(func(any) bool { return true }), func(*wrs.Event) { count++ }, wrs.WithoutCall())

	composer.Decompose("anything", nil)

	assert.Equal(t, 0, count)
}

func TestEventBusCompose(t *testing.T) {
	bus := wrs.NewEventBus()

	var got any
	bus.Compose([]any{"a", "b"}, func(e *wrs.Event) {
		got = e.Data().(map[string]any)["composer"]
	})

	assert.Equal(t, 1, bus.Decompose("b", nil))
	assert.Equal(t, "b", got)
	assert.Equal(t, 0, bus.Decompose("c", nil))
}
