package domain

import (
	"encoding/json"
	"testing"
)

func TestIDSet_AddIsIdempotent(t *testing.T) {
	s := NewIDSet()

	if !s.Add("m1") {
		t.Error("first Add() should report a change")
	}
	if s.Add("m1") {
		t.Error("second Add() should be a no-op")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d; want 1", s.Len())
	}
}

func TestIDSet_Remove(t *testing.T) {
	s := NewIDSet("m1", "m2")

	if !s.Remove("m1") {
		t.Error("Remove() of a member should report a change")
	}
	if s.Remove("m1") {
		t.Error("Remove() of a missing id should be a no-op")
	}
	if s.Has("m1") || !s.Has("m2") {
		t.Errorf("unexpected members: %v", s.Sorted())
	}
}

func TestIDSet_JSON(t *testing.T) {
	var s IDSet
	if err := json.Unmarshal([]byte(`["b","a","a"]`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d; want 2", s.Len())
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["a","b"]` {
		t.Errorf("Marshal() = %s; want [\"a\",\"b\"]", data)
	}

	var empty IDSet
	if err := json.Unmarshal([]byte(`null`), &empty); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	if empty == nil || empty.Len() != 0 {
		t.Error("null should decode to an empty, usable set")
	}
}
