package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAlertPipelineOrder(t *testing.T) {
	cases := []struct {
		kind  Kind
		first Step
	}{
		{StandardKind(), StepAlertHours},
		{TemperatureKind(nil, nil), StepAlertTempMin},
		{WindKind(0), StepAlertWindMax},
		{HumidityKind(nil, nil), StepAlertHumidityMin},
	}
	for _, tc := range cases {
		var c Conversation
		c.BeginAlert(tc.kind)
		if c.Step != StepAlertCity {
			t.Fatalf("%s: step = %s", tc.kind.Type, c.Step)
		}
		next, err := c.SetAlertCity("Kyiv")
		if err != nil {
			t.Fatalf("%s: set city: %v", tc.kind.Type, err)
		}
		if next != tc.first {
			t.Fatalf("%s: next = %s, want %s", tc.kind.Type, next, tc.first)
		}
	}
}

func TestTemperaturePipelineCommit(t *testing.T) {
	var c Conversation
	c.BeginAlert(TemperatureKind(nil, nil))
	if _, err := c.SetAlertCity("Kharkiv"); err != nil {
		t.Fatalf("city: %v", err)
	}
	if err := c.SetTempMin(fptr(10)); err != nil {
		t.Fatalf("min: %v", err)
	}
	if err := c.SetTempMax(fptr(30)); err != nil {
		t.Fatalf("max: %v", err)
	}
	if _, err := c.Commit(0); !errors.Is(err, ErrHoursOutOfRange) {
		t.Fatalf("expected hours error, got %v", err)
	}
	if c.Step != StepAlertHours || c.Pending == nil {
		t.Fatal("invalid hours must keep the pipeline in place")
	}
	a, err := c.Commit(24)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if a.City != "Kharkiv" || a.HoursAhead != 24 || *a.Kind.TempMin != 10 || *a.Kind.TempMax != 30 {
		t.Fatalf("unexpected alert: %+v", a)
	}
	if c.Step != StepIdle || c.Pending != nil {
		t.Fatalf("commit must reset, got %+v", c)
	}
}

func TestTransitionInWrongStep(t *testing.T) {
	var c Conversation
	if err := c.SetTempMin(fptr(1)); !errors.Is(err, ErrUnexpectedStep) {
		t.Fatalf("expected ErrUnexpectedStep, got %v", err)
	}
	c.BeginAlert(WindKind(0))
	if err := c.SetHumidityMin(uptr(1)); !errors.Is(err, ErrUnexpectedStep) {
		t.Fatalf("expected ErrUnexpectedStep, got %v", err)
	}
	if err := c.Await(StepAlertHours); !errors.Is(err, ErrUnexpectedStep) {
		t.Fatalf("await on pipeline step: %v", err)
	}
}

func TestResetFromEveryStep(t *testing.T) {
	for _, s := range Steps() {
		c := Conversation{Step: s}
		if s.AlertPipeline() {
			c.Pending = &PendingAlert{City: "Kyiv", Kind: HumidityKind(uptr(1), nil), Hours: 5}
		}
		c.Reset()
		if c.Step != StepIdle || c.Pending != nil {
			t.Fatalf("reset from %s left %+v", s, c)
		}
	}
}

func TestStepTextRoundTrip(t *testing.T) {
	c := Conversation{Step: StepAlertHumidityMax, Pending: &PendingAlert{City: "Lviv", Kind: HumidityKind(uptr(30), nil)}}
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Conversation
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Step != StepAlertHumidityMax || back.Pending.City != "Lviv" || *back.Pending.Kind.HumidityMin != 30 {
		t.Fatalf("round trip mismatch: %s", raw)
	}
	var s Step
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatal("expected error for unknown step")
	}
}
