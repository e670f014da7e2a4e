package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leo-bot/leobot/internal/events"
)

type fakeReporter struct {
	text string
	err  error
}

func (f fakeReporter) Report(_ context.Context, city string, forecast bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestNew_Validation(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	if _, err := New(Config{Bus: bus}); err == nil {
		t.Fatal("expected error without reporter")
	}
	if _, err := New(Config{Bus: bus, Reporter: fakeReporter{}, Jobs: []Job{{Cron: "bogus", City: "潮阳区"}}}); err == nil {
		t.Fatal("expected error for invalid cron")
	}
	if _, err := New(Config{Bus: bus, Reporter: fakeReporter{}, Jobs: []Job{{Cron: "0 8 * * *"}}}); err == nil {
		t.Fatal("expected error for missing city")
	}
}

func TestEntries(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	s, err := New(Config{
		Bus:      bus,
		Reporter: fakeReporter{},
		Location: time.UTC,
		Jobs:     []Job{{Cron: "0 8 * * *", City: "潮阳区", Forecast: true}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	entries := s.Entries(now)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if !entries[0].Next.Equal(want) || entries[0].Job.City != "潮阳区" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestRun_Broadcast(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsub := bus.SubscribeChan(4, events.EventScheduleTrigger, events.EventOutgoingBroadcast)
	defer unsub()

	s, err := New(Config{Bus: bus, Reporter: fakeReporter{text: "日期    : 2025-03-09\n"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	job := Job{Cron: "0 8 * * *", City: "潮阳区", Forecast: true}
	if err := s.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := map[events.EventType]events.Event{}
	for len(got) < 2 {
		select {
		case e := <-ch:
			got[e.Type] = e
		case <-time.After(time.Second):
			t.Fatalf("timeout, got %v", got)
		}
	}

	trigger, ok := events.ExtractPayload[events.ScheduleTriggerPayload](got[events.EventScheduleTrigger])
	if !ok || trigger.City != "潮阳区" || !trigger.Forecast || trigger.Error != "" {
		t.Fatalf("unexpected trigger %+v", trigger)
	}
	bc, ok := events.ExtractPayload[events.OutgoingBroadcastPayload](got[events.EventOutgoingBroadcast])
	if !ok || bc.Topic != "weather" || !strings.HasPrefix(bc.Content, "潮阳区天气预报:\n") {
		t.Fatalf("unexpected broadcast %+v", bc)
	}
	if got[events.EventOutgoingBroadcast].Source != events.SourceScheduler {
		t.Fatalf("unexpected source %q", got[events.EventOutgoingBroadcast].Source)
	}
}

func TestRun_Error(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsub := bus.SubscribeChan(4, events.EventScheduleTrigger, events.EventOutgoingBroadcast)
	defer unsub()

	s, err := New(Config{Bus: bus, Reporter: fakeReporter{err: errors.New("amap down")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Run(context.Background(), Job{Cron: "@hourly", City: "北京"}); err == nil {
		t.Fatal("expected error")
	}

	select {
	case e := <-ch:
		p, ok := events.ExtractPayload[events.ScheduleTriggerPayload](e)
		if !ok || p.Error != "amap down" {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for trigger event")
	}

	select {
	case e := <-ch:
		t.Fatalf("no broadcast expected, got %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStartStop(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	s, err := New(Config{Bus: bus, Reporter: fakeReporter{}, Jobs: []Job{{Cron: "@hourly", City: "北京"}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
