package entity

import "testing"

func TestParseStatus(t *testing.T) {
	if _, ok := ParseStatus("Ingresado"); !ok {
		t.Error("Expected Ingresado to parse")
	}
	if _, ok := ParseStatus("Reparación en Progreso"); !ok {
		t.Error("Expected long-form status to parse")
	}
	if _, ok := ParseStatus("In Progress"); ok {
		t.Error("English labels are display-only, not canonical values")
	}
	if _, ok := ParseStatus(""); ok {
		t.Error("Empty status must not parse")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusPickedUp, StatusCancelled, StatusNotRepairable, StatusPartsUnavailable}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("Expected %q to be terminal", s)
		}
	}
	if StatusFinished.Terminal() {
		t.Error("Finished repairs still move to pickup")
	}
}

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role    Role
		receive bool
		update  bool
	}{
		{RoleSuperadmin, true, true},
		{RoleAdmin, true, true},
		{RoleReception, true, false},
		{RoleTechnician, false, true},
		{RoleUser, false, false},
	}
	for _, c := range cases {
		if c.role.CanReceiveRepairs() != c.receive {
			t.Errorf("%s: CanReceiveRepairs = %v, want %v", c.role, !c.receive, c.receive)
		}
		if c.role.CanUpdateRepairs() != c.update {
			t.Errorf("%s: CanUpdateRepairs = %v, want %v", c.role, !c.update, c.update)
		}
	}
}

func TestLastTimelineStatus(t *testing.T) {
	r := &Repair{}
	if _, ok := r.LastTimelineStatus(); ok {
		t.Error("Expected no status on empty timeline")
	}

	r.Timeline = []TimelineEntry{
		{Status: StatusReceived, Sequence: 1},
		{Status: StatusInProgress, Sequence: 2},
	}
	status, ok := r.LastTimelineStatus()
	if !ok || status != StatusInProgress {
		t.Errorf("Expected last status in progress, got %q", status)
	}
}
