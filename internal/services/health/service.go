package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB       Pinger
	Storage  string
	Provider string
	Model    string
}

// NewService constructs a new health service. db may be nil when documents
// are kept in memory.
func NewService(db Pinger, storage, provider, model string) *Service {
	return &Service{DB: db, Storage: storage, Provider: provider, Model: model}
}

// Status reports whether the process can serve requests. Only a failing
// database makes it unhealthy.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
	LLM      string `json:"llm"`
	Error    string `json:"error,omitempty"`
}

// Check pings the database and describes the configured backends.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{OK: true, Database: "memory", Storage: s.Storage, LLM: s.Provider}
	if s.Model != "" {
		st.LLM += "/" + s.Model
	}
	if s.DB == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "unavailable"
		st.Error = err.Error()
		return st
	}
	st.Database = "ok"
	return st
}
