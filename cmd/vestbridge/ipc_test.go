package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startTestIPCServer(t *testing.T) (string, *fakeSink) {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "vestbridge.sock")
	bridge, sink := newTestBridge(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runIPCServer(ctx, sock, bridge, testLogger())
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("IPC server exited with error: %v", err)
			}
		case <-time.After(time.Second):
			t.Error("IPC server did not shut down")
		}
	})

	waitUntil(t, time.Second, func() bool {
		_, err := os.Stat(sock)
		return err == nil
	}, "IPC socket was not created")

	return sock, sink
}

func TestIPCServer_DeliversHookEvents(t *testing.T) {
	sock, sink := startTestIPCServer(t)

	observer := Vec3{}
	target := Vec3{Z: -5}
	err := SendHookEvent(sock, HookEvent{
		Category:  CategoryPlayerDamage,
		Observer:  &observer,
		Target:    &target,
		Magnitude: 20,
	})
	if err != nil {
		t.Fatalf("send hook event: %v", err)
	}

	waitUntil(t, time.Second, func() bool { return sink.count() == 1 }, "event never reached the sink")

	got, err := DecodeWireEvent([]byte(sink.last()))
	if err != nil {
		t.Fatalf("decode submitted frame: %v", err)
	}
	if got.Event != CategoryPlayerDamage || got.Angle != 180 || got.Damage != 20 {
		t.Errorf("submitted frame = %+v", got)
	}
}

func TestIPCServer_MultipleEventsPerConnection(t *testing.T) {
	sock, sink := startTestIPCServer(t)

	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for _, category := range []string{CategoryWeaponFireRifle, CategoryWeaponReload, CategoryGrenadeThrow} {
		data, err := MarshalHookEvent(HookEvent{Category: category})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
			t.Fatalf("write: %v", err)
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		var resp IPCResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if resp.Status != "ok" {
			t.Fatalf("response = %+v, want ok", resp)
		}
	}

	waitUntil(t, time.Second, func() bool { return sink.count() == 3 }, "events never reached the sink")
}

func TestIPCServer_RejectsMalformedLine(t *testing.T) {
	sock, sink := startTestIPCServer(t)

	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "this is not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("response = %+v, want error with message", resp)
	}
	if sink.count() != 0 {
		t.Errorf("malformed line reached the sink: %s", sink.last())
	}
}
