// Package guard provides ready made intercept functions for the common
// access checks of a wrs server.
//
// Module, controller and page interceptors receive the dispatch Context as
// their first argument. Connection interceptors receive the Connection.
//
//	server.Interceptors().
//		AttachController("ProfileController").
//		Handle(guard.RequireConnectionValue(wrs.KeyAuth, wrs.CodeNoAuth))
package guard

import "github.com/RobertWHurst/wrs"

// RequireConnectionValue answers with code when the connection data bag
// holds nothing under key. Otherwise dispatch proceeds.
func RequireConnectionValue(key string, code string) wrs.InterceptFunc {
	return Deny(code, func(ctx *wrs.Context) bool {
		return ctx.GetFromConnection(key) == nil
	})
}

// Deny answers with code when deny returns true.
func Deny(code string, deny func(ctx *wrs.Context) bool) wrs.InterceptFunc {
	return func(_ string, args ...any) wrs.Interception {
		ctx, ok := contextArg(args)
		if !ok || !deny(ctx) {
			return wrs.Defer()
		}
		return wrs.Substitute(wrs.OverrideFunc(func(*wrs.Context) wrs.Outcome {
			return wrs.Code(code)
		}))
	}
}

// Silence drops the response of every request it intercepts. The page does
// not run.
func Silence() wrs.InterceptFunc {
	return func(string, ...any) wrs.Interception {
		return wrs.Substitute(false)
	}
}

// Greeting replaces the code table greeting of new connections with a
// failure message whenever reject returns a non empty string. Attach it with
// AttachConnection("rise").
func Greeting(reject func(connection *wrs.Connection) string) wrs.InterceptFunc {
	return func(_ string, args ...any) wrs.Interception {
		if len(args) == 0 {
			return wrs.Defer()
		}
		connection, ok := args[0].(*wrs.Connection)
		if !ok {
			return wrs.Defer()
		}
		if message := reject(connection); message != "" {
			return wrs.Substitute(message)
		}
		return wrs.Defer()
	}
}

func contextArg(args []any) (*wrs.Context, bool) {
	if len(args) == 0 {
		return nil, false
	}
	ctx, ok := args[0].(*wrs.Context)
	return ctx, ok
}
