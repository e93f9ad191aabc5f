// Veripatrol - Patrol Checkpoint Geofencing and Offline Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veripatrol

package models

import (
	"testing"
	"time"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		input   string
		want    EntityType
		wantErr bool
	}{
		{"time_record", EntityTimeRecord, false},
		{"location", EntityLocation, false},
		{"photo", EntityPhoto, false},
		{"report", EntityReport, false},
		{"checkpoint", EntityCheckpoint, false},
		{"", "", true},
		{"bogus", "", true},
		{"Checkpoint", "", true}, // case-sensitive
	}

	for _, tt := range tests {
		got, err := ParseEntityType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEntityType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEntityType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEntityTypes_AllValid(t *testing.T) {
	types := EntityTypes()
	if len(types) != 5 {
		t.Fatalf("expected 5 entity types, got %d", len(types))
	}
	for _, et := range types {
		if !et.Valid() {
			t.Errorf("EntityTypes() returned invalid type %q", et)
		}
	}
}

func TestPatrolStatus_Complete(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		status PatrolStatus
		want   bool
	}{
		{"fresh", PatrolStatus{TotalCheckpoints: 5, VerifiedCheckpoints: 0, StartTime: now}, false},
		{"partial", PatrolStatus{TotalCheckpoints: 5, VerifiedCheckpoints: 4, StartTime: now}, false},
		{"complete", PatrolStatus{TotalCheckpoints: 5, VerifiedCheckpoints: 5, StartTime: now}, true},
		{"zeroed", PatrolStatus{}, false},
	}

	for _, tt := range tests {
		if got := tt.status.Complete(); got != tt.want {
			t.Errorf("%s: Complete() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
