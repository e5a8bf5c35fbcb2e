package health

import "time"

// Service encapsulates health-related checks.
type Service struct {
	version     string
	startedAt   time.Time
	credentials bool
	now         func() time.Time
}

// NewService constructs a new health service. credentials reports whether a default
// upstream key is configured; requests may still supply their own.
func NewService(version string, credentials bool) *Service {
	return &Service{
		version:     version,
		startedAt:   time.Now(),
		credentials: credentials,
		now:         time.Now,
	}
}

// Status is the health payload.
type Status struct {
	OK                bool   `json:"ok"`
	Version           string `json:"version,omitempty"`
	UptimeSeconds     int64  `json:"uptimeSeconds"`
	DefaultCredential bool   `json:"defaultCredential"`
}

// Status returns a simple health payload.
func (s *Service) Status() Status {
	return Status{
		OK:                true,
		Version:           s.version,
		UptimeSeconds:     int64(s.now().Sub(s.startedAt).Seconds()),
		DefaultCredential: s.credentials,
	}
}
