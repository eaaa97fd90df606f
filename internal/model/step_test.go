package model

import "testing"

func TestCanTransition(t *testing.T) {
	steps := AllSteps()

	// 合法转换只有相邻前进的四对
	allowed := map[[2]Step]bool{
		{StepReceive, StepClarify}: true,
		{StepClarify, StepReframe}: true,
		{StepReframe, StepOptions}: true,
		{StepOptions, StepCommit}:  true,
	}

	for _, from := range steps {
		for _, to := range steps {
			got := CanTransition(from, to)
			want := allowed[[2]Step{from, to}]
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownStep(t *testing.T) {
	if CanTransition(Step("unknown"), StepClarify) {
		t.Error("unknown from step should not transition")
	}
	if CanTransition(StepReceive, Step("unknown")) {
		t.Error("unknown to step should not be reachable")
	}
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		from Step
		want Step
		ok   bool
	}{
		{StepReceive, StepClarify, true},
		{StepClarify, StepReframe, true},
		{StepReframe, StepOptions, true},
		{StepOptions, StepCommit, true},
		{StepCommit, "", false},
		{Step("unknown"), "", false},
	}

	for _, tt := range tests {
		got, ok := NextStep(tt.from)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NextStep(%s) = (%s, %v), want (%s, %v)", tt.from, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsFinalStep(t *testing.T) {
	for _, s := range AllSteps() {
		want := s == StepCommit
		if IsFinalStep(s) != want {
			t.Errorf("IsFinalStep(%s) = %v, want %v", s, IsFinalStep(s), want)
		}
	}
}

func TestIsValidStep(t *testing.T) {
	for _, s := range AllSteps() {
		if !IsValidStep(s) {
			t.Errorf("IsValidStep(%s) = false, want true", s)
		}
	}
	if IsValidStep(Step("resolve")) {
		t.Error("IsValidStep(resolve) = true, want false")
	}
}
