package logging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RobertWHurst/wrs"
	"github.com/RobertWHurst/wrs/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("loud"))
}

func TestNewWritesToFile(t *testing.T) {
	var out bytes.Buffer
	file := filepath.Join(t.TempDir(), "wrs.log")

	logger, closer := logging.New(logging.Options{Level: "info", File: file, Output: &out})
	logger.Info("hello")
	require.NoError(t, closer.Close())

	assert.Contains(t, out.String(), "msg=hello")
	assert.FileExists(t, file)
}

func TestAttachLogsEventFamilies(t *testing.T) {
	var out bytes.Buffer
	logger, _ := logging.New(logging.Options{Level: "debug", Output: &out})

	bus := wrs.NewEventBus()
	logging.Attach(bus, logger)

	bus.Emit(wrs.EventServerError, errors.New("boom"))
	bus.Emit(wrs.EventConnectionParsed, &wrs.IncomingMessage{Target: "user", Section: "Profile"})
	bus.Emit(wrs.EventWebsocketReject, &wrs.ConnectionInfo{RemoteAddr: "10.0.0.1:99"})
	bus.Emit(wrs.EventServerBadMethod, httptest.NewRequest("POST", "/x", nil))
	bus.Fire(wrs.EventServiceAllReady, nil)

	logged := out.String()
	assert.Contains(t, logged, "[SERVER] server.error")
	assert.Contains(t, logged, "boom")
	assert.Contains(t, logged, "[CONN] connection.parsed")
	assert.Contains(t, logged, "Profile")
	assert.Contains(t, logged, "10.0.0.1:99")
	assert.Contains(t, logged, "method=POST")
	assert.Contains(t, logged, "[SERVICE] service.all.ready")
}

type cacheService struct{}

func (cacheService) Name() string { return "cache" }

func TestAttachLogsServiceReadiness(t *testing.T) {
	var out bytes.Buffer
	logger, _ := logging.New(logging.Options{Level: "info", Output: &out})

	server := wrs.NewServer()
	logging.Attach(server.Events(), logger)
	server.Service(cacheService{})
	require.NoError(t, server.Start(context.Background()))
	<-server.Ready()

	logged := out.String()
	assert.Contains(t, logged, "[SERVICE] service.online")
	assert.Contains(t, logged, "service=cache")
	assert.Contains(t, logged, "[SERVICE] service.all.ready")
	assert.Less(t, strings.Index(logged, "service.online"), strings.Index(logged, "service.all.ready"))
}

func TestAttachRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	logger, _ := logging.New(logging.Options{Level: "error", Output: &out})

	bus := wrs.NewEventBus()
	logging.Attach(bus, logger)
	bus.Emit(wrs.EventConnectionParsed, &wrs.IncomingMessage{Target: "user"})

	assert.Empty(t, out.String())
}
