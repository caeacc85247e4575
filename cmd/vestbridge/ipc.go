package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC Server - Unix Domain Socket Ingest
// ============================================================================
// Hook call-sites deliver events to the bridge via a Unix domain socket
// carrying line-delimited JSON. This is the host boundary: everything on the
// far side of the socket is engine glue, everything on this side is the
// bridge core.
//
// Protocol:
//   - Client sends: {"type":"hook_event","data":{...}}
//   - Server responds: {"status":"ok"} or {"status":"error","error":"msg"}
//
// A response says the event was accepted for processing, not that it
// reached the daemon; delivery stays fire-and-forget.
// ============================================================================

// IPCResponse is the per-line response sent back to IPC clients.
type IPCResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // set when status == "error"
}

// runIPCServer accepts hook connections until ctx is canceled, at which
// point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, bridge *Bridge, logger *slog.Logger) error {
	// Remove a stale socket from a previous run.
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, bridge, logger)
	}
}

// handleIPCConnection processes one hook connection. Each line is parsed,
// handed to the bridge, and acknowledged. Emit is bounded and non-blocking,
// so no intermediate queue sits between the socket and the bridge.
func handleIPCConnection(conn net.Conn, bridge *Bridge, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		ev, err := UnmarshalHookEvent([]byte(line))
		if err != nil {
			response := IPCResponse{
				Status: "error",
				Error:  fmt.Sprintf("parse hook event: %v", err),
			}
			if encErr := encoder.Encode(response); encErr != nil {
				logger.Error("IPC failed to send error response", "error", encErr)
			}
			continue
		}

		bridge.Emit(ev)

		if encErr := encoder.Encode(IPCResponse{Status: "ok"}); encErr != nil {
			logger.Error("IPC failed to send response", "error", encErr)
		}
	}

	logger.Debug("IPC connection closed")
}

// SendHookEvent delivers one event to a running bridge via IPC. Used by
// external tooling and tests.
func SendHookEvent(socketPath string, ev HookEvent) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := MarshalHookEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal hook event: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send hook event: %w", err)
	}

	decoder := json.NewDecoder(conn)
	var resp IPCResponse
	if err := decoder.Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return fmt.Errorf("ipc error: %s", resp.Error)
	}

	return nil
}
