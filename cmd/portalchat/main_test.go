package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/portalchat/internal/assistant"
)

func runRoot(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func startEcho(t *testing.T, cfg assistant.EchoConfig) string {
	t.Helper()
	logger := zerolog.Nop()
	srv := httptest.NewServer(assistant.NewEchoHandler(cfg, &logger))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestStatusCommand(t *testing.T) {
	echoURL := startEcho(t, assistant.EchoConfig{})
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
log_level: "off"
services:
  - name: echo
    url: `+echoURL+assistant.DefaultHealthPath+`
  - name: missing
    url: `+echoURL+`/nope
`), 0o600))

	out := runRoot(t, "", "status", "--config", configPath, "--assistant-url", echoURL)

	assert.Contains(t, out, "Assistant")
	assert.Contains(t, out, "up  "+echoURL)
	assert.Regexp(t, `echo\s+up`, out)
	assert.Regexp(t, `missing\s+down`, out)
}

func TestChatCommand(t *testing.T) {
	echoURL := startEcho(t, assistant.EchoConfig{})
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out := runRoot(t, "Hello\n/quit\n", "chat", "--config", configPath, "--log-level", "off", "--assistant-url", echoURL)

	assert.Contains(t, out, "you: Hello")
	assert.Contains(t, out, "assistant: **Echo:** Hello")
	assert.Contains(t, out, "Goodbye!")
}

func TestChatCommandAssistantDown(t *testing.T) {
	echoURL := startEcho(t, assistant.EchoConfig{Fail: true})
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out := runRoot(t, "Hello\n", "chat", "--config", configPath, "--log-level", "off", "--assistant-url", echoURL)

	assert.Contains(t, out, "assistant: Sorry, I encountered an error. Please try again.")
}
