package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/eeglab/taskdata/internal/handler"
	"github.com/eeglab/taskdata/internal/ingest"
)

func startServer(t *testing.T, mutate func(*Config)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	svc := ingest.New(ingest.Options{DataDir: t.TempDir()})
	cfg := &Config{
		Listen:          addr,
		Threads:         4,
		ShutdownTimeout: time.Second,
		Handler:         handler.New(svc, 16<<20),
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	base := "http://" + addr
	for i := 0; i < 50; i++ {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			return base
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server never became ready")
	return ""
}

func TestServerServesRoutes(t *testing.T) {
	base := startServer(t, nil)

	resp, err := http.Post(base+"/submit_data", "application/json",
		strings.NewReader(`{"id": "p1", "session": "s1", "data": [{"value": 1}]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("submit status = %d", resp.StatusCode)
	}
}

func TestServerCORSPreflight(t *testing.T) {
	base := startServer(t, func(cfg *Config) {
		cfg.CORSOrigins = []string{"https://tasks.example.org"}
	})

	req, err := http.NewRequest(http.MethodOptions, base+"/submit_data", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "https://tasks.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://tasks.example.org" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestServerRateLimit(t *testing.T) {
	base := startServer(t, func(cfg *Config) {
		cfg.RateLimit = 3
		cfg.RateWindow = time.Minute
	})

	var limited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(base + "/health")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("rate limit never triggered")
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	svc := ingest.New(ingest.Options{DataDir: t.TempDir()})
	srv := New(&Config{
		Listen:          addr,
		ShutdownTimeout: time.Second,
		Handler:         handler.New(svc, 16<<20),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	for i := 0; i < 50; i++ {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v after cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown timed out")
	}
}
