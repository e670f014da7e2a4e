// Package storage persists leobot runtime records to disk.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leo-bot/leobot/internal/events"
)

// EventLogger persists bus events to JSONL files, one file per day.
type EventLogger struct {
	mu          sync.Mutex
	dir         string
	unsubscribe func()
}

// NewEventLogger creates an EventLogger that subscribes to the given event
// types (all when none are given) and appends them to dir/YYYY-MM-DD.jsonl.
func NewEventLogger(dir string, bus *events.Bus, eventTypes ...events.EventType) *EventLogger {
	el := &EventLogger{dir: dir}
	el.unsubscribe = bus.Subscribe(el.handleEvent, eventTypes...)
	return el
}

// Close unsubscribes the logger from the event bus.
func (el *EventLogger) Close() {
	if el.unsubscribe != nil {
		el.unsubscribe()
	}
}

func (el *EventLogger) handleEvent(e events.Event) {
	if err := el.writeEvent(e); err != nil {
		slog.Warn("event log write failed", "type", e.Type, "error", err)
	}
}

func (el *EventLogger) writeEvent(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data = append(data, '\n')

	// Subscribers run concurrently; appends to the same file must not interleave.
	el.mu.Lock()
	defer el.mu.Unlock()

	if err := os.MkdirAll(el.dir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(el.LogPath(e.Timestamp), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// LogPath returns the file events published at t are written to.
func (el *EventLogger) LogPath(t time.Time) string {
	return LogPath(el.dir, t)
}

// LogPath returns the daily log file under dir for t.
func LogPath(dir string, t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return filepath.Join(dir, t.Format("2006-01-02")+".jsonl")
}

// ReadEvents decodes a JSONL log written by EventLogger, keeping only the
// given event types (all when none are given). Undecodable lines are skipped.
// A missing file yields no events.
func ReadEvents(path string, eventTypes ...events.EventType) ([]events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	keep := func(t events.EventType) bool {
		if len(eventTypes) == 0 {
			return true
		}
		for _, want := range eventTypes {
			if t == want {
				return true
			}
		}
		return false
	}

	var out []events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for scanner.Scan() {
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if keep(e.Type) {
			out = append(out, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("scan event log: %w", err)
	}
	return out, nil
}
