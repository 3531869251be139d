// Package wrs provides a WebSocket request/response server framework for Go.
//
// Clients send JSON requests addressed to a module, a controller section and
// a page. The server routes each request through the module, controller and
// page, and answers with a structured response carrying a numeric code from
// the server's code table.
//
// # Key Features
//
//   - Module, controller and page dispatch with explicit registration
//   - An event bus with exact and pattern ("like") subscriptions, fire once
//     semantics, request/respond channels and structural composers
//   - Interceptors that override or veto dispatch at the connection, module,
//     controller and page level
//   - Services initialized in dependency order
//   - Broadcasts across nodes through an interplexer (local or NATS)
//   - Works with any HTTP router via http.Handler, or as Navaros middleware
//
// # Quick Start
//
//	profile := wrs.NewController("ProfileController", "Profile").
//	    Page("get", func(ctx *wrs.Context) wrs.Outcome {
//	        return ctx.Ok("profile", map[string]any{"name": "alice"})
//	    })
//
//	server := wrs.NewServer()
//	server.Module(wrs.NewModule("UserModule").Controller(profile))
//	if err := server.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", server)
//
// # Message Format
//
// Requests are text frames holding either the literal "ping" or a JSON
// object:
//
//	{"target": "user", "section": "Profile", "page": "get", "id": 7, "data": {}}
//
// Responses carry the request id, the numeric code, whether the code is
// SUCCESS and the code name:
//
//	{"id": 7, "code": 0, "ok": true, "statusCode": "SUCCESS",
//	 "message": {"class": "profile", "data": {"name": "alice"}}}
//
// # Events
//
// Lifecycle notifications are emitted on the server's event bus. Like
// subscriptions match families of events by pattern:
//
//	server.Events().Like("connection", func(e *wrs.Event) {
//	    log.Printf("%s", e.Type())
//	})
//
// # Interceptors
//
// Interceptors are attached through the registry and return an
// Interception:
//
//	server.Interceptors().AttachModule("UserModule").
//	    Handle(func(key string, args ...any) wrs.Interception {
//	        return wrs.Substitute(false) // suppress every request to the module
//	    })
package wrs
