package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeLabelSeeder struct {
	seeded map[uuid.UUID][]string
	err    error
}

func (f *fakeLabelSeeder) AddLabels(ctx context.Context, userID uuid.UUID, labels []string) error {
	if f.err != nil {
		return f.err
	}
	if f.seeded == nil {
		f.seeded = make(map[uuid.UUID][]string)
	}
	f.seeded[userID] = append(f.seeded[userID], labels...)
	return nil
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestSeedLabels_PopulatesDefaults(t *testing.T) {
	seeder := &fakeLabelSeeder{}
	svc := &AuthService{labels: seeder}
	userID := uuid.New()

	svc.seedLabels(context.Background(), userID)

	got := seeder.seeded[userID]
	if len(got) != len(DefaultLabels) {
		t.Fatalf("seeded %d labels, want %d", len(got), len(DefaultLabels))
	}
	for i, label := range DefaultLabels {
		if got[i] != label {
			t.Errorf("label %d = %q, want %q", i, got[i], label)
		}
	}
}

func TestSeedLabels_LogsFailure(t *testing.T) {
	buf := captureLog(t)
	svc := &AuthService{labels: &fakeLabelSeeder{err: errors.New("connection refused")}}
	userID := uuid.New()

	svc.seedLabels(context.Background(), userID)

	out := buf.String()
	if !strings.Contains(out, "Failed to seed default labels") {
		t.Fatalf("expected seed failure in log, got %q", out)
	}
	if !strings.Contains(out, userID.String()) {
		t.Errorf("expected user ID in log, got %q", out)
	}
}

func TestValidatePassword(t *testing.T) {
	if err := validatePassword("short1"); err == nil {
		t.Error("expected error for password under 8 characters")
	}
	if err := validatePassword("nonumbers"); err == nil {
		t.Error("expected error for password without a digit")
	}
	if err := validatePassword("longenough1"); err != nil {
		t.Errorf("unexpected error for valid password: %v", err)
	}
}
