package wrs_test

import (
	"testing"

	"github.com/RobertWHurst/wrs"
)

func BenchmarkPatternMatch(b *testing.B) {
	pattern, _ := wrs.NewPattern("connection.:id.message")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pattern.Match("connection.123.message")
	}
}

func BenchmarkPatternMatchStatic(b *testing.B) {
	pattern, _ := wrs.NewPattern("connection.rise")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pattern.Match("connection.rise")
	}
}

func BenchmarkPatternMatchWildcard(b *testing.B) {
	pattern, _ := wrs.NewPattern("server.**")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pattern.Match("server.some.deep.event")
	}
}

func BenchmarkPatternCompilation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = wrs.NewPattern("user.:id.*.posts.:postId?")
	}
}

func BenchmarkEmit(b *testing.B) {
	bus := wrs.NewEventBus()
	bus.On("connection.message", func(*wrs.Event) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit("connection.message", i)
	}
}

func BenchmarkEmitWithLike(b *testing.B) {
	bus := wrs.NewEventBus()
	bus.On("connection.message", func(*wrs.Event) {})
	bus.Like("connection.*", func(*wrs.Event) {})
	bus.Like("server.*", func(*wrs.Event) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit("connection.message", i)
	}
}

func BenchmarkIntercept(b *testing.B) {
	registry := wrs.NewInterceptorRegistry()
	registry.AttachPage("ProfileController", "get").Handle(func(string, ...any) wrs.Interception {
		return wrs.Defer()
	})
	collection := registry.Collection()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collection.Intercept("profilecontroller.get", nil, wrs.OnNull(func(any) wrs.BranchResult {
			return wrs.Resolved(nil)
		}))
	}
}

func BenchmarkMessageDispatch(b *testing.B) {
	server := wrs.NewServer()
	server.Module(wrs.NewModule("Bench").Controller(
		wrs.NewController("BenchController", "Bench").Page("run", func(ctx *wrs.Context) wrs.Outcome {
			return ctx.Ok("run", nil)
		}),
	))

	mock := newMockConnection()
	go server.HandleConnection(nil, mock)
	defer mock.clientClose(wrs.StatusNormalClosure, "")
	<-mock.outgoing

	msg := &wrs.SocketMessage{
		Type: wrs.MessageText,
		Data: []byte(`{"target":"bench","section":"Bench","page":"run","id":1}`),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mock.incoming <- mockRead{msg: msg}
		<-mock.outgoing
	}
}
