package utils

import (
	"context"
	"testing"
	"time"
)

func TestCallSlotScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if callSlotAcquireScript == nil || callSlotBoundReleaseScript == nil || callSlotForfeitScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestCallSlotInputValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := AcquireCallSlot(ctx, nil, "calls:active:a", 1, time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := ReleaseBoundSlot(ctx, nil, "calls:slot:CA1"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := BindCallSlot(ctx, nil, "calls:slot:CA1", "calls:active:a", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ForfeitCallSlot(ctx, nil, "calls:active:a"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
