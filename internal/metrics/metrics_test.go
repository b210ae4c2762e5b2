package metrics

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type capture struct {
	counters  map[string]float64
	lastLabel Labels
}

func (c *capture) IncCounter(name string, delta float64, labels Labels) {
	if c.counters == nil {
		c.counters = map[string]float64{}
	}
	c.counters[name] += delta
	c.lastLabel = labels
}

func (c *capture) ObserveDuration(string, float64, Labels) {}
func (c *capture) Flush() error                            { return nil }

func TestRecordStageLabelsStatus(t *testing.T) {
	c := &capture{}
	SetBackend(c)
	defer SetBackend(nopBackend{})

	RecordStage("job1", "ingest", nil, time.Second)
	want := Labels{"job": "job1", "stage": "ingest", "status": "success"}
	if !reflect.DeepEqual(c.lastLabel, want) {
		t.Fatalf("labels = %v, want %v", c.lastLabel, want)
	}

	RecordStage("job1", "ingest", errors.New("boom"), time.Second)
	if c.lastLabel["status"] != "failure" {
		t.Fatalf("labels = %v, want failure status", c.lastLabel)
	}
	if c.counters["pipeline_stage_total"] != 2 {
		t.Fatalf("stage counter = %v, want 2", c.counters["pipeline_stage_total"])
	}
}

func TestRecordRowsIgnoresNonPositive(t *testing.T) {
	c := &capture{}
	SetBackend(c)
	defer SetBackend(nopBackend{})

	RecordRows("job1", "client_rows", 0)
	RecordRows("job1", "client_rows", -3)
	if c.counters["pipeline_rows_total"] != 0 {
		t.Fatalf("non-positive deltas must be dropped: %v", c.counters)
	}
	RecordRows("job1", "client_rows", 7)
	if c.counters["pipeline_rows_total"] != 7 {
		t.Fatalf("rows counter = %v, want 7", c.counters["pipeline_rows_total"])
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	c := &capture{}
	SetBackend(c)
	defer SetBackend(nopBackend{})

	SetBackend(nil)
	RecordRows("job1", "k", 1)
	if c.counters["pipeline_rows_total"] != 1 {
		t.Fatalf("nil SetBackend must keep the installed backend")
	}
}
