package memory

import (
	"errors"
	"testing"
)

func TestStorageRoundTrip(t *testing.T) {
	s := NewStorage()
	if _, ok, err := s.GetItem("k"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.SetItem("k", "[1]"); err != nil {
		t.Fatalf("SetItem returned error: %v", err)
	}
	value, ok, err := s.GetItem("k")
	if err != nil || !ok || value != "[1]" {
		t.Fatalf("expected [1], got %q ok=%v err=%v", value, ok, err)
	}
	if err := s.RemoveItem("k"); err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
	if err := s.RemoveItem("k"); err != nil {
		t.Fatalf("expected removing a missing key to succeed, got %v", err)
	}
}

func TestStorageQuota(t *testing.T) {
	s := NewStorage(WithQuota(8))
	if err := s.SetItem("k", "1234567"); err != nil {
		t.Fatalf("expected value within quota to be stored, got %v", err)
	}
	if err := s.SetItem("k", "12345678"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	value, _, _ := s.GetItem("k")
	if value != "1234567" {
		t.Fatalf("expected previous value to survive a rejected write, got %q", value)
	}
}

func TestStorageDisabled(t *testing.T) {
	s := NewStorage()
	s.Disable()
	if err := s.SetItem("k", "v"); !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("expected ErrStorageDisabled, got %v", err)
	}
	if _, _, err := s.GetItem("k"); !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("expected ErrStorageDisabled, got %v", err)
	}
	s.Enable()
	if err := s.SetItem("k", "v"); err != nil {
		t.Fatalf("expected writes after Enable, got %v", err)
	}
}
