package domain

import (
	"testing"
	"time"
)

func TestIdempotencyStatusValid(t *testing.T) {
	valid := []IdempotencyStatus{
		IdempotencyStatusProcessing,
		IdempotencyStatusDone,
		IdempotencyStatusFailed,
	}
	for _, status := range valid {
		if !status.Valid() {
			t.Fatalf("expected status %q to be valid", status)
		}
	}

	if IdempotencyStatus("unknown").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestIdempotencyStatusFinished(t *testing.T) {
	if IdempotencyStatusProcessing.Finished() {
		t.Fatal("processing must not be finished")
	}
	if !IdempotencyStatusDone.Finished() || !IdempotencyStatusFailed.Finished() {
		t.Fatal("done and failed must be finished")
	}
}

func TestIdempotencyRecordExpired(t *testing.T) {
	now := time.Now().UTC()

	if (IdempotencyRecord{}).Expired(now) {
		t.Fatal("record without ttl must not expire")
	}
	if !(IdempotencyRecord{TTLAt: now}).Expired(now) {
		t.Fatal("record must expire exactly at ttl")
	}
	if (IdempotencyRecord{TTLAt: now.Add(time.Minute)}).Expired(now) {
		t.Fatal("record with future ttl must not expire")
	}
}
