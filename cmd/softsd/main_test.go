package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/softsd/pkg"
)

// execute runs the command tree with args and returns its standard output.
func execute(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// imageFolder creates a folder with a 1 MiB BOOT.DSK whose first sector
// starts with "SOFTSD".
func imageFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	data := make([]byte, 1<<20)
	copy(data, "SOFTSD")
	if err := os.WriteFile(filepath.Join(dir, "BOOT.DSK"), data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg := "# test images\nBOOT.DSK\nMISSING.DSK\n"
	if err := os.WriteFile(filepath.Join(dir, "_disks.cfg"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return dir
}

func TestImagesCommand(t *testing.T) {
	dir := imageFolder(t)

	out, err := execute(context.Background(), "images", "--folder", dir)
	if err != nil {
		t.Fatalf("images error = %v", err)
	}
	for _, want := range []string{"INDEX", "BOOT.DSK", "1 MB", "2048"} {
		if !strings.Contains(out, want) {
			t.Errorf("images output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "MISSING.DSK") {
		t.Errorf("images output lists an unopenable image:\n%s", out)
	}
}

func TestImagesCommandRequiresFolder(t *testing.T) {
	if _, err := execute(context.Background(), "images"); err == nil {
		t.Error("images without --folder succeeded")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(context.Background(), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "softsd ") {
		t.Errorf("version output = %q", out)
	}
}

func TestServeValidation(t *testing.T) {
	dir := imageFolder(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no transport", []string{"serve", "--folder", dir}, pkg.ErrNotConfigured},
		{"no folder", []string{"serve", "--listen", "127.0.0.1:0"}, pkg.ErrNotConfigured},
		{"read-only and ram", []string{"serve", "--listen", "127.0.0.1:0", "--folder", dir, "--read-only", "--ram"}, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(context.Background(), tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("serve error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := execute(context.Background(), "serve", "--folder", dir, "--listen", ":0", "--fifo", dir); err == nil {
		t.Error("serve with two transports succeeded")
	}
}

func TestProbeRequiresTarget(t *testing.T) {
	_, err := execute(context.Background(), "probe", "status")
	if !errors.Is(err, pkg.ErrNotConfigured) {
		t.Errorf("probe error = %v, want ErrNotConfigured", err)
	}
}

// freeAddr returns a loopback address with a currently unused port.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestServeClientHangup(t *testing.T) {
	dir := imageFolder(t)
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		_, err := execute(ctx, "serve", "--listen", addr, "--folder", dir, "--ram", "--poll", "1ms")
		served <- err
	}()

	var c net.Conn
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		c, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Dial() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Close()

	select {
	case err := <-served:
		if !errors.Is(err, pkg.ErrTransport) {
			t.Fatalf("serve after client hangup error = %v, want transport failure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after the client hung up")
	}
}

func TestServeProbeSession(t *testing.T) {
	dir := imageFolder(t)
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		_, err := execute(ctx, "serve", "--listen", addr, "--folder", dir, "--poll", "1ms")
		served <- err
	}()

	var probeOut string
	deadline := time.Now().Add(5 * time.Second)
	for {
		out, err := execute(context.Background(), "probe", "--connect", addr, "read", "1", "0")
		if err == nil {
			probeOut = out
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("probe error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !strings.Contains(probeOut, "SOFTSD") {
		t.Errorf("probe read output missing sector contents:\n%s", probeOut)
	}

	select {
	case err := <-served:
		if !errors.Is(err, pkg.ErrTransport) {
			t.Errorf("serve error = %v, want transport failure after the probe disconnected", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after the probe disconnected")
	}
}

func TestServeCancelWhileListening(t *testing.T) {
	dir := imageFolder(t)
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		_, err := execute(ctx, "serve", "--listen", addr, "--folder", dir)
		served <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("serve error = %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
