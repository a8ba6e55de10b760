package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHubReportAppendsToHistoryAndTrims(t *testing.T) {
	hub := NewHub(2)
	hub.Report(Sample{Stage: StageParsing, Dataset: "a"})
	hub.Report(Sample{Stage: StageReady, Dataset: "b"})
	hub.Report(Sample{Stage: StageStreaming, Dataset: "c"})

	history := hub.History()
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Dataset != "b" || history[1].Dataset != "c" {
		t.Fatalf("unexpected trimmed history: %+v", history)
	}
}

func TestHubReportStampsTimestampWhenZero(t *testing.T) {
	hub := NewHub(10)
	hub.Report(Sample{Stage: StageIdle})
	history := hub.History()
	if len(history) != 1 || history[0].Timestamp.IsZero() {
		t.Fatalf("expected stamped timestamp, got %+v", history)
	}
}

func TestHubSubscribeReceivesLiveSamples(t *testing.T) {
	hub := NewHub(10)
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Report(Sample{Stage: StageStreaming, FramesSent: 5})

	select {
	case sample := <-ch:
		if sample.FramesSent != 5 {
			t.Fatalf("unexpected sample: %+v", sample)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live sample")
	}
}

func TestHubSubscribeCancelClosesChannel(t *testing.T) {
	hub := NewHub(10)
	ch, cancel := hub.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestHandleHistoryReturnsJSON(t *testing.T) {
	hub := NewHub(10)
	hub.Report(Sample{Stage: StageReady, Dataset: "x"})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rr := httptest.NewRecorder()
	hub.handleHistory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got []Sample
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Dataset != "x" {
		t.Fatalf("unexpected history payload: %+v", got)
	}
}

func TestMultiReporterFansOutToEachReporter(t *testing.T) {
	hubA := NewHub(10)
	hubB := NewHub(10)
	multi := MultiReporter{hubA, nil, hubB}

	multi.Report(Sample{Stage: StageParsing})

	if len(hubA.History()) != 1 || len(hubB.History()) != 1 {
		t.Fatalf("expected both hubs to record the sample, got %d and %d", len(hubA.History()), len(hubB.History()))
	}
}
