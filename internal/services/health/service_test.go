package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		wantOK bool
		wantDB string
	}{
		{name: "memory", db: nil, wantOK: true, wantDB: "memory"},
		{name: "ok", db: fakePinger{}, wantOK: true, wantDB: "ok"},
		{name: "down", db: fakePinger{err: errors.New("database is locked")}, wantOK: false, wantDB: "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.db, "local", "gemini", "gemini-2.5-flash")
			st := svc.Check(context.Background())
			if st.OK != tt.wantOK || st.Database != tt.wantDB {
				t.Fatalf("unexpected status %+v", st)
			}
			if st.LLM != "gemini/gemini-2.5-flash" || st.Storage != "local" {
				t.Fatalf("unexpected backends %+v", st)
			}
		})
	}
}
