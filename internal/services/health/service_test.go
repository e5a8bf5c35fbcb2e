package health

import (
	"testing"
	"time"
)

func TestStatusReportsUptimeAndCredential(t *testing.T) {
	svc := NewService("1.2.3", true)
	start := svc.startedAt
	svc.now = func() time.Time { return start.Add(90 * time.Second) }

	got := svc.Status()
	if !got.OK {
		t.Fatalf("expected ok")
	}
	if got.UptimeSeconds != 90 {
		t.Fatalf("expected 90s uptime, got %d", got.UptimeSeconds)
	}
	if !got.DefaultCredential || got.Version != "1.2.3" {
		t.Fatalf("unexpected status: %+v", got)
	}
}
