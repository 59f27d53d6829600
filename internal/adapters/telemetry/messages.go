package telemetry

import "time"

// msgTaskLog carries a chunk of log output for a specific task span.
type msgTaskLog struct {
	SpanID string
	Data   []byte
}

// msgInitTasks announces the planned tasks of a build.
type msgInitTasks struct {
	Tasks        []string
	Dependencies map[string][]string
	Targets      []string
}

// msgTaskStart announces a task span.
type msgTaskStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// msgTaskComplete reports the end of a task span.
type msgTaskComplete struct {
	SpanID  string
	EndTime time.Time
	Outcome string
	Err     error
}
