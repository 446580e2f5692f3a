package model

import "testing"

func TestAllSections(t *testing.T) {
	sections := AllSections()
	if len(sections) != 12 {
		t.Fatalf("section count = %d, want 12", len(sections))
	}

	seen := map[Section]bool{}
	for _, s := range sections {
		if seen[s] {
			t.Errorf("duplicate section %q", s)
		}
		seen[s] = true
		if !s.Valid() {
			t.Errorf("section %q not registered", s)
		}
		if _, ok := s.NewContent(); !ok {
			t.Errorf("section %q has no content type", s)
		}
	}
}

func TestSectionValid(t *testing.T) {
	if Section("basket_weaving").Valid() {
		t.Error("unknown section reported valid")
	}
	// Profile bears no items and is not a valid item section.
	if SectionProfile.Valid() {
		t.Error("profile reported as item-bearing")
	}
	if _, ok := Section("basket_weaving").NewContent(); ok {
		t.Error("unknown section produced content")
	}
}

func TestAllowsStatus(t *testing.T) {
	cases := []struct {
		section Section
		status  ReviewStatus
		want    bool
	}{
		{SectionBeTheChange, StatusApproved, true},
		{SectionBeTheChange, StatusResubmitted, true},
		{SectionBeTheChange, StatusInProgress, false},
		{SectionBeTheChange, StatusAchieved, false},
		{SectionThoughtsToActions, StatusInProgress, true},
		{SectionThoughtsToActions, StatusAchieved, true},
		{SectionThoughtsToActions, StatusApproved, true},
		{SectionThoughtsToActions, StatusResubmitted, false},
		{SectionProfile, StatusApproved, true},
		{SectionProfile, StatusInProgress, false},
		{Section("basket_weaving"), StatusApproved, false},
	}

	for _, tc := range cases {
		if got := tc.section.AllowsStatus(tc.status); got != tc.want {
			t.Errorf("%s allows %s = %v, want %v", tc.section, tc.status, got, tc.want)
		}
	}
}

func TestRejectedEditStatus(t *testing.T) {
	for _, s := range AllSections() {
		want := StatusResubmitted
		if s == SectionEthicsThroughArt || s == SectionThoughtsToActions {
			want = StatusPending
		}
		if got := s.RejectedEditStatus(); got != want {
			t.Errorf("%s rejected edit = %s, want %s", s, got, want)
		}
	}
}
