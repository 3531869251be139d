package main

import (
	"time"

	"github.com/RobertWHurst/wrs"
)

// NewSystemModule exposes the server's own metadata to clients.
func NewSystemModule(server *wrs.Server) *wrs.Module {
	system := wrs.NewController("SystemController", "System").
		Page("routes", func(ctx *wrs.Context) wrs.Outcome {
			routes := []string{}
			for _, descriptor := range server.RouteDescriptors() {
				routes = append(routes, descriptor.String())
			}
			return ctx.Ok("routes", routes)
		}).
		Page("codes", func(ctx *wrs.Context) wrs.Outcome {
			return ctx.Ok("codes", server.Codes().Names())
		}).
		Page("time", func(ctx *wrs.Context) wrs.Outcome {
			return ctx.Ok("time", time.Now().UTC().Format(time.RFC3339))
		})

	return wrs.NewModule("SystemModule").Controller(system)
}
