package internal

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunShutsDownOnSignal(t *testing.T) {
	dir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.Inbox.Dir = filepath.Join(dir, "inbox")
	cfg.Journal.Path = ""
	cfg.Classifier.APIKey = ""
	cfg.App.HTTP.Port = freePort(t)

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), WithConfig(cfg))
	}()

	// Give Run time to register its signal handler and start the watcher.
	time.Sleep(500 * time.Millisecond)

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send SIGTERM: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after SIGTERM; watcher goroutine not released")
	}
}
