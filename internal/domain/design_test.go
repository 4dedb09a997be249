package domain

import (
	"strings"
	"testing"
)

func TestTruncateError(t *testing.T) {
	long := strings.Repeat("x", 400)
	got := TruncateError(long)
	if len(got) != MaxErrorLength+3 {
		t.Fatalf("unexpected length: %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got[len(got)-10:])
	}

	short := strings.Repeat("y", 100)
	if got := TruncateError(short); got != short {
		t.Fatalf("short message should be unchanged, got %q", got)
	}

	exact := strings.Repeat("z", MaxErrorLength)
	if got := TruncateError(exact); got != exact {
		t.Fatalf("message at the cap should be unchanged")
	}
}

func TestDesignStatusIsTerminal(t *testing.T) {
	cases := map[DesignStatus]bool{
		DesignStatusPending:    false,
		DesignStatusProcessing: false,
		DesignStatusCompleted:  true,
		DesignStatusFailed:     true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestRoomTypeProviderLabel(t *testing.T) {
	if got := RoomTypeLivingRoom.ProviderLabel(); got != "Living Room" {
		t.Fatalf("unexpected label: %s", got)
	}
	if got := RoomType("ATTIC").ProviderLabel(); got != "Bedroom" {
		t.Fatalf("unknown types should default to Bedroom, got %s", got)
	}
}
