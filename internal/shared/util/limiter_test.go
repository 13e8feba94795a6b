package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestPerMinuteLimiter(t *testing.T) {
	l := NewPerMinuteLimiter(60, 1)
	if !l.Allow(1) {
		t.Error("expected burst token to be allowed")
	}
	if l.Allow(1) {
		t.Error("expected second token to be rejected within the same second")
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *Limiter
	if !l.Allow(100) {
		t.Error("expected nil limiter to allow")
	}
	if err := l.Wait(context.Background(), 1); err != nil {
		t.Errorf("expected nil limiter wait to succeed, got %v", err)
	}
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, 1); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}
