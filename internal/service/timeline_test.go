package service

import (
	"testing"
	"time"

	"pathforge/internal/catalog"
)

func TestTimelineRanksUpcomingEvents(t *testing.T) {
	g := NewTimelineGenerator(defaultCatalog(t), fixedNow)
	rep, err := g.Generate("research")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, ok := rep.Timeline.([]TimelineEvent)
	if !ok || len(events) == 0 {
		t.Fatalf("expected events, got %+v", rep.Timeline)
	}
	if events[0].Title != "Open Science Summit" || events[0].Relevance != 3 {
		t.Fatalf("expected most relevant event first, got %+v", events[0])
	}
	if rep.TotalEvents != len(events) || len(events) > timelineLimit {
		t.Fatalf("unexpected total: %d", rep.TotalEvents)
	}
}

func TestTimelineDropsPastEvents(t *testing.T) {
	later := func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	rep, _ := NewTimelineGenerator(defaultCatalog(t), later).Generate("research")
	msgs, ok := rep.Timeline.([]string)
	if !ok || len(msgs) != 1 || msgs[0] != noEventsMessage {
		t.Fatalf("expected no-events message, got %+v", rep.Timeline)
	}
}

func TestTimelineFallsBackToDomainTag(t *testing.T) {
	cat := &catalog.Catalog{Events: defaultCatalog(t).Events}
	rep, _ := NewTimelineGenerator(cat, fixedNow).Generate("law")
	events, ok := rep.Timeline.([]TimelineEvent)
	if !ok || len(events) != 1 || events[0].Title != "Moot Court Competition" || events[0].Relevance != 1 {
		t.Fatalf("expected law-tagged event only, got %+v", rep.Timeline)
	}
}
