package model

import "testing"

func TestFits_UnlimitedAlwaysFits(t *testing.T) {
	s := &Slot{UnlimitedParticipants: true}

	for _, count := range []int{1, 10, 1000} {
		if !s.Fits(count) {
			t.Errorf("無制限スロットは%d名でも適合すべき", count)
		}
	}
}

func TestFits_CapacityBound(t *testing.T) {
	s := &Slot{AvailableParticipants: intPtr(2)}

	tests := []struct {
		count int
		want  bool
	}{
		{1, true},
		{2, true},
		{3, false},
	}
	for _, tt := range tests {
		if got := s.Fits(tt.count); got != tt.want {
			t.Errorf("Fits(%d) = %v, want %v (残席2)", tt.count, got, tt.want)
		}
	}
}

func TestFits_MissingAvailability_DoesNotFit(t *testing.T) {
	s := &Slot{}

	if s.Fits(1) {
		t.Error("残席情報のない容量付きスロットは適合しないべき")
	}
}
