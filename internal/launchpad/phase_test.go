package launchpad

import (
	"errors"
	"math/big"
	"testing"
)

func TestAddPhaseValidation(t *testing.T) {
	c := newTestCollection(t, 10, 0)

	if _, err := c.AddPhase(testOther, "p", 100, 0, big.NewInt(0), 0); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner err = %v, want ErrNotOwner", err)
	}
	if _, err := c.AddPhase(testOwner, "p", 200, 200, big.NewInt(0), 0); !errors.Is(err, ErrInvalidPhaseWindow) {
		t.Fatalf("end==start err = %v, want ErrInvalidPhaseWindow", err)
	}
	if _, err := c.AddPhase(testOwner, "p", 200, 100, big.NewInt(0), 0); !errors.Is(err, ErrInvalidPhaseWindow) {
		t.Fatalf("end<start err = %v, want ErrInvalidPhaseWindow", err)
	}
	// Open-ended phases skip the window check.
	if _, err := c.AddPhase(testOwner, "open", 200, 0, big.NewInt(0), 0); err != nil {
		t.Fatalf("open-ended: %v", err)
	}
}

func TestPhaseIDsMonotonicNeverReused(t *testing.T) {
	c := newTestCollection(t, 10, 0)

	id1, err := c.AddPhase(testOwner, "a", 100, 200, big.NewInt(0), 0)
	mustNoErr(t, err)
	id2, err := c.AddPhase(testOwner, "b", 200, 300, big.NewInt(0), 0)
	mustNoErr(t, err)
	if id1 != 1 || id2 != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", id1, id2)
	}

	mustNoErr(t, c.RemovePhase(testOwner, id2))
	id3, err := c.AddPhase(testOwner, "c", 300, 400, big.NewInt(0), 0)
	mustNoErr(t, err)
	if id3 != 3 {
		t.Fatalf("id after removal = %d, want 3", id3)
	}
}

func TestRemovePhaseTombstones(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	id := addOpenPhase(t, c, 0, 0)

	if err := c.RemovePhase(testOther, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner err = %v, want ErrNotOwner", err)
	}
	mustNoErr(t, c.RemovePhase(testOwner, id))

	if _, err := c.PhaseByID(id); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("PhaseByID err = %v, want ErrPhaseNotFound", err)
	}
	if err := c.RemovePhase(testOwner, id); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("double remove err = %v, want ErrPhaseNotFound", err)
	}
	if err := c.UpdatePhase(testOwner, id, "x", 0, 0, nil, 0); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("update removed err = %v, want ErrPhaseNotFound", err)
	}
	if _, err := c.ActivePhase(); !errors.Is(err, ErrNoActivePhase) {
		t.Errorf("ActivePhase err = %v, want ErrNoActivePhase", err)
	}
}

func TestActivePhaseTieBreak(t *testing.T) {
	c := newTestCollection(t, 10, 0)

	// Two overlapping open windows. The lower ID wins.
	id1, err := c.AddPhase(testOwner, "first", 900_000, 0, big.NewInt(10), 0)
	mustNoErr(t, err)
	id2, err := c.AddPhase(testOwner, "second", 900_000, 0, big.NewInt(20), 0)
	mustNoErr(t, err)

	phase, err := c.ActivePhase()
	mustNoErr(t, err)
	if phase.ID != id1 {
		t.Fatalf("active phase = %d, want %d", phase.ID, id1)
	}

	// Removing the winner promotes the next live phase.
	mustNoErr(t, c.RemovePhase(testOwner, id1))
	phase, err = c.ActivePhase()
	mustNoErr(t, err)
	if phase.ID != id2 {
		t.Fatalf("active phase after removal = %d, want %d", phase.ID, id2)
	}
}

func TestActivePhaseWindowBoundaries(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	id, err := c.AddPhase(testOwner, "windowed", 1_000_000, 2_000_000, big.NewInt(0), 0)
	mustNoErr(t, err)

	tests := []struct {
		name   string
		at     int64
		active bool
	}{
		{"before start", 999_999, false},
		{"start inclusive", 1_000_000, true},
		{"last second", 1_999_999, true},
		{"end exclusive", 2_000_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetClock(fixedClock(tt.at))
			phase, err := c.ActivePhase()
			if tt.active {
				if err != nil || phase.ID != id {
					t.Fatalf("ActivePhase = %v, %v, want phase %d", phase, err, id)
				}
			} else if !errors.Is(err, ErrNoActivePhase) {
				t.Fatalf("err = %v, want ErrNoActivePhase", err)
			}
		})
	}
}

func TestUpdatePhase(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	id := addOpenPhase(t, c, 100, 1)

	if err := c.UpdatePhase(testOther, id, "x", 0, 0, nil, 0); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner err = %v, want ErrNotOwner", err)
	}
	if err := c.UpdatePhase(testOwner, id, "x", 500, 400, nil, 0); !errors.Is(err, ErrInvalidPhaseWindow) {
		t.Fatalf("bad window err = %v, want ErrInvalidPhaseWindow", err)
	}
	if err := c.UpdatePhase(testOwner, 99, "x", 0, 0, nil, 0); !errors.Is(err, ErrPhaseNotFound) {
		t.Fatalf("missing phase err = %v, want ErrPhaseNotFound", err)
	}

	mustNoErr(t, c.UpdatePhase(testOwner, id, "renamed", 500_000, 0, big.NewInt(250), 5))
	phase, err := c.PhaseByID(id)
	mustNoErr(t, err)
	if phase.Name != "renamed" || phase.StartTime != 500_000 || phase.Price.Int64() != 250 || phase.MaxPerWallet != 5 {
		t.Fatalf("updated phase = %+v", phase)
	}
}

func TestPhasesListsLiveOnly(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	id1, _ := c.AddPhase(testOwner, "a", 100, 200, big.NewInt(0), 0)
	id2, _ := c.AddPhase(testOwner, "b", 200, 300, big.NewInt(0), 0)
	id3, _ := c.AddPhase(testOwner, "c", 300, 400, big.NewInt(0), 0)
	mustNoErr(t, c.RemovePhase(testOwner, id2))

	phases := c.Phases()
	if len(phases) != 2 || phases[0].ID != id1 || phases[1].ID != id3 {
		t.Fatalf("Phases = %+v, want ids [%d %d]", phases, id1, id3)
	}
}

func TestPhaseSnapshotIsCopy(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	id := addOpenPhase(t, c, 100, 0)

	phase, err := c.PhaseByID(id)
	mustNoErr(t, err)
	phase.Name = "mutated"
	phase.Price.SetInt64(999)

	fresh, err := c.PhaseByID(id)
	mustNoErr(t, err)
	if fresh.Name != "public" || fresh.Price.Int64() != 100 {
		t.Fatalf("internal phase mutated through snapshot: %+v", fresh)
	}
}
