package logging

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/RobertWHurst/wrs"
	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	MaxDepth:                4,
}

// Attach subscribes the logger to the lifecycle events of a bus. Every event
// family is subscribed with a single like-subscription.
func Attach(bus *wrs.EventBus, logger *slog.Logger) {
	bus.Like("connection", func(event *wrs.Event) { logConnection(logger, event) })
	bus.Like("websocket", func(event *wrs.Event) { logWebsocket(logger, event) })
	bus.Like("module", func(event *wrs.Event) { logDigest(logger, event) })
	bus.Like("controller", func(event *wrs.Event) { logDigest(logger, event) })
	bus.Like("server", func(event *wrs.Event) { logServer(logger, event) })
	bus.Like("service", func(event *wrs.Event) { logService(logger, event) })
	bus.Like("auth", func(event *wrs.Event) {
		logger.Debug("[AUTH] "+event.Type(), slog.Any("auth", event.Data()))
	})
}

func logConnection(logger *slog.Logger, event *wrs.Event) {
	switch data := event.Data().(type) {
	case *wrs.Connection:
		level := slog.LevelDebug
		if event.Type() == wrs.EventConnectionRise || event.Type() == wrs.EventConnectionDrop {
			level = slog.LevelInfo
		}
		logger.Log(context.Background(), level, "[CONN] "+event.Type(),
			slog.String("conn_id", data.ID()),
			slog.String("remote_addr", data.RemoteAddr()),
		)
	case *wrs.CloseInfo:
		logger.Info("[CONN] "+event.Type(),
			slog.String("conn_id", data.Connection.ID()),
			slog.Int("status", int(data.Status)),
			slog.String("reason", data.Reason),
			slog.String("source", data.Source.String()),
		)
	case error:
		logger.Warn("[CONN] "+event.Type(), slog.Any("err", data))
	case *wrs.IncomingMessage:
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			logger.Debug("[CONN] "+event.Type(), slog.String("message", dumper.Sdump(data)))
		}
	case *wrs.Module:
		logger.Debug("[CONN] "+event.Type(), slog.String("module", data.Name()))
	case []byte:
		logger.Debug("[CONN] "+event.Type(), slog.Int("bytes", len(data)))
	case *wrs.SocketMessage:
		logger.Debug("[CONN] "+event.Type(), slog.Int("bytes", len(data.Data)))
	}
}

func logWebsocket(logger *slog.Logger, event *wrs.Event) {
	info, ok := event.Data().(*wrs.ConnectionInfo)
	if !ok {
		return
	}
	if event.Type() == wrs.EventWebsocketReject {
		logger.Warn("[WS] "+event.Type(), slog.String("remote_addr", info.RemoteAddr))
		return
	}
	logger.Debug("[WS] "+event.Type(), slog.String("remote_addr", info.RemoteAddr))
}

func logDigest(logger *slog.Logger, event *wrs.Event) {
	info, ok := event.Data().(*wrs.DigestInfo)
	if !ok {
		return
	}
	logger.Debug("[DISPATCH] "+event.Type(),
		slog.String("module", info.Module),
		slog.String("controller", info.Controller),
		slog.String("page", info.Page),
	)
}

func logService(logger *slog.Logger, event *wrs.Event) {
	service, ok := event.Data().(wrs.Service)
	if !ok {
		logger.Info("[SERVICE] " + event.Type())
		return
	}
	logger.Info("[SERVICE] "+event.Type(), slog.String("service", service.Name()))
}

func logServer(logger *slog.Logger, event *wrs.Event) {
	switch data := event.Data().(type) {
	case error:
		logger.Error("[SERVER] "+event.Type(), slog.Any("err", data))
	case *wrs.BroadcastRequest:
		logger.Debug("[SERVER] "+event.Type(), slog.String("class", data.Class))
	case *http.Request:
		logger.Warn("[SERVER] "+event.Type(),
			slog.String("method", data.Method),
			slog.String("path", data.URL.Path),
		)
	case string:
		logger.Info("[SERVER] "+event.Type(), slog.String("addr", data))
	default:
		logger.Info("[SERVER] " + event.Type())
	}
}
