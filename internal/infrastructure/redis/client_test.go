package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestNewClientSuccess(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	ctx := context.Background()
	client, err := NewClient(ctx, fmt.Sprintf("redis://%s", s.Addr()))
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url")
	if err == nil {
		t.Fatalf("expected error for invalid URL")
	}
}

func TestNewClientPingFailure(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close() // close before attempting to connect

	_, err := NewClient(context.Background(), url)
	if err == nil {
		t.Fatalf("expected ping error when server is down")
	}
}

func TestConnectSuccess(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := Connect(context.Background(), fmt.Sprintf("redis://%s", s.Addr()), time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()
}

func TestConnectInvalidURLFailsFast(t *testing.T) {
	start := time.Now()
	_, err := Connect(context.Background(), "://bad-url", time.Minute, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for invalid URL")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("invalid URL should not be retried")
	}
}

func TestConnectGivesUp(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	_, err := Connect(context.Background(), url, 300*time.Millisecond, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error when server stays down")
	}
}
