package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"notebook/internal/shared/observability"
)

// HealthService reports on a session for /health and the health op.
type HealthService struct {
	session *Session
}

var _ observability.HealthChecker = (*HealthService)(nil)

func NewHealthService(session *Session) *HealthService {
	return &HealthService{session: session}
}

func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	status.Components["heap"] = fmt.Sprintf("%d MB", mem.HeapAlloc/1024/1024)

	if s.session == nil {
		status.Status = "down"
		status.Components["session"] = "missing"
		return status
	}
	status.Components["session"] = fmt.Sprintf("ok (%s, up %s)", s.session.ID, time.Since(s.session.Started).Round(time.Second))

	if s.session.realm == nil || !s.session.realm.Global().IsObject() {
		status.Status = "degraded"
		status.Components["realm"] = "missing"
	} else {
		status.Components["realm"] = "ok"
	}

	hooks := s.session.Hooks()
	if len(hooks) == 0 {
		status.Status = "degraded"
		status.Components["hooks"] = "none registered"
	} else {
		status.Components["hooks"] = fmt.Sprintf("ok (%d hooks)", len(hooks))
	}

	return status
}
