package models

import (
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SearchQuery
		wantErr bool
	}{
		{"empty query", &SearchQuery{Query: ""}, true},
		{"valid query", &SearchQuery{Query: "doggie"}, false},
		{"sets default limit", &SearchQuery{Query: "x", Limit: 0}, false},
		{"caps limit at 100", &SearchQuery{Query: "x", Limit: 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.query.Limit == 0 {
				t.Error("expected default limit to be set")
			}
			if tt.query.Limit > 100 {
				t.Errorf("expected limit capped at 100, got %d", tt.query.Limit)
			}
		})
	}
}

func TestPredictRequest_Validate(t *testing.T) {
	if err := (&PredictRequest{}).Validate(); err == nil {
		t.Error("empty utterance should fail validation")
	}
	if err := (&PredictRequest{Utterance: "the dog barks"}).Validate(); err != nil {
		t.Errorf("valid request: %v", err)
	}
}

func TestUtterance_HasAge(t *testing.T) {
	u := &Utterance{AgeMonths: 30}
	if !u.HasAge() {
		t.Error("30 months should count as a usable age")
	}
	u = &Utterance{AgeMonths: AgeUnknown}
	if u.HasAge() {
		t.Error("AgeUnknown should not count as a usable age")
	}
	u = &Utterance{AgeMonths: 0}
	if !u.HasAge() {
		t.Error("zero months is a usable age")
	}
}
