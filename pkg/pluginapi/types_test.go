package pluginapi

import "testing"

func TestMakePlayer(t *testing.T) {
	p := MakePlayer(7, 3)
	if p.IsNull() {
		t.Fatal("MakePlayer(7, 3) is null")
	}
	if p.Slot() != 7 {
		t.Errorf("Slot() = %d, want 7", p.Slot())
	}
	if p.Gen() != 3 {
		t.Errorf("Gen() = %d, want 3", p.Gen())
	}

	if !MakePlayer(7, 0).IsNull() {
		t.Error("generation 0 should produce the null handle")
	}
	if MakePlayer(0, 1) == NoPlayer {
		t.Error("slot 0 generation 1 should not be null")
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r     Result
		want  string
		known bool
	}{
		{ResultOK, "Success", true},
		{ResultDeny, "Deny", true},
		{ResultInvalidHP, "Invalid HP value (must be 0-100)", true},
		{ResultMapOutOfBounds, "Coordinates out of map bounds", true},
		{ResultCmdTooMany, "Too many commands registered", true},
		{Result(-42), "", false},
	}

	for _, tt := range tests {
		got, ok := ResultString(tt.r)
		if ok != tt.known || got != tt.want {
			t.Errorf("ResultString(%d) = %q, %v; want %q, %v", tt.r, got, ok, tt.want, tt.known)
		}
	}

	if got := Result(-42).String(); got != "unknown result (-42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestResultRanges(t *testing.T) {
	if ResultAllow.IsError() || ResultOK.IsError() {
		t.Error("success codes reported as errors")
	}
	for _, r := range []Result{ResultError, ResultPlayerNotFound, ResultMapNoBlock, ResultCmdInvalidName} {
		if !r.IsError() {
			t.Errorf("%v.IsError() = false", r)
		}
	}
	if ResultPlayerNotFound > -100 || ResultPlayerNotFound < -199 {
		t.Error("player errors out of range")
	}
}

func TestColor(t *testing.T) {
	if got := Color(0xFF, 0x00, 0xFF, 0xFF); got != 0xFF00FFFF {
		t.Errorf("Color() = %#x, want 0xFF00FFFF", got)
	}
}
