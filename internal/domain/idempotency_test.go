package domain

import "testing"

func TestIdempotencyStatusValid(t *testing.T) {
	tests := []struct {
		name   string
		status IdempotencyStatus
		want   bool
	}{
		{name: "processing", status: IdempotencyStatusProcessing, want: true},
		{name: "done", status: IdempotencyStatusDone, want: true},
		{name: "failed", status: IdempotencyStatusFailed, want: true},
		{name: "invalid", status: IdempotencyStatus("broken"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Valid(); got != tc.want {
				t.Fatalf("status %q valid=%v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestIdempotencyRecordReplayable(t *testing.T) {
	tests := []struct {
		name   string
		record IdempotencyRecord
		want   bool
	}{
		{name: "done with status", record: IdempotencyRecord{Status: IdempotencyStatusDone, HTTPStatus: 201}, want: true},
		{name: "done without status", record: IdempotencyRecord{Status: IdempotencyStatusDone}, want: false},
		{name: "processing", record: IdempotencyRecord{Status: IdempotencyStatusProcessing, HTTPStatus: 201}, want: false},
		{name: "failed with status", record: IdempotencyRecord{Status: IdempotencyStatusFailed, HTTPStatus: 400}, want: true},
		{name: "failed without status", record: IdempotencyRecord{Status: IdempotencyStatusFailed}, want: false},
		{name: "unknown status", record: IdempotencyRecord{Status: "archived", HTTPStatus: 200}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.record.Replayable(); got != tc.want {
				t.Fatalf("Replayable()=%v, want %v", got, tc.want)
			}
		})
	}
}
