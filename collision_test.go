package main

import (
	"errors"
	"math"
	"testing"
)

func TestApplyBounceLaw(t *testing.T) {
	start := Kinematics{Position: Vec2{X: 12, Y: -7}, Velocity: Vec2{X: 1, Y: 1}}
	next, stretch, err := ApplyBounce(start, Vec2{X: 4, Y: 3}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Velocity != (Vec2{X: -6, Y: -4.5}) {
		t.Errorf("expected velocity (-6,-4.5), got %+v", next.Velocity)
	}
	if stretch != 2.5 {
		t.Errorf("expected stretch 2.5, got %v", stretch)
	}
	// Bounce never moves the player
	if next.Position != start.Position {
		t.Errorf("position changed: %+v -> %+v", start.Position, next.Position)
	}
}

func TestApplyBounceAcrossSpringConstants(t *testing.T) {
	cases := []struct {
		in Vec2
		k  float64
	}{
		{Vec2{X: 0, Y: 0}, 1},
		{Vec2{X: -10, Y: 0}, 4},
		{Vec2{X: 3, Y: -4}, 0.5},
		{Vec2{X: 120, Y: 35}, 7},
	}
	for _, c := range cases {
		next, stretch, err := ApplyBounce(Kinematics{}, c.in, c.k)
		if err != nil {
			t.Fatalf("%+v k=%v: %v", c.in, c.k, err)
		}
		if next.Velocity.X != -1.5*c.in.X || next.Velocity.Y != -1.5*c.in.Y {
			t.Errorf("%+v: expected reflected x1.5, got %+v", c.in, next.Velocity)
		}
		want := math.Sqrt(c.in.X*c.in.X+c.in.Y*c.in.Y) / c.k
		if math.Abs(stretch-want) > 1e-12 {
			t.Errorf("%+v k=%v: expected stretch %v, got %v", c.in, c.k, want, stretch)
		}
	}
}

func TestApplyBounceRejectsBadSpring(t *testing.T) {
	if _, _, err := ApplyBounce(Kinematics{}, Vec2{X: 1}, 0); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite for zero spring constant, got %v", err)
	}
}

func TestApplyReportIsVerbatim(t *testing.T) {
	next, err := ApplyReport(Vec2{X: 410, Y: -3}, Vec2{X: 9, Y: 8})
	if err != nil {
		t.Fatal(err)
	}
	if next.Position != (Vec2{X: 410, Y: -3}) || next.Velocity != (Vec2{X: 9, Y: 8}) {
		t.Errorf("report not applied verbatim: %+v", next)
	}
}

func TestApplyReportRejectsNonFinite(t *testing.T) {
	if _, err := ApplyReport(Vec2{X: math.Inf(1)}, Vec2{}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
	if _, err := ApplyReport(Vec2{}, Vec2{Y: math.NaN()}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}

func TestApplyDirectionStep(t *testing.T) {
	start := Kinematics{Position: Vec2{X: 200, Y: 200}}
	next, err := ApplyDirection(start, Vec2{X: 1, Y: -0.5})
	if err != nil {
		t.Fatal(err)
	}
	if next.Velocity != (Vec2{X: 100, Y: -50}) {
		t.Errorf("expected velocity (100,-50), got %+v", next.Velocity)
	}
	if math.Abs(next.Position.X-(200+100.0/30)) > 1e-9 || math.Abs(next.Position.Y-(200-50.0/30)) > 1e-9 {
		t.Errorf("unexpected position %+v", next.Position)
	}
}

func TestApplyDirectionOverflow(t *testing.T) {
	if _, err := ApplyDirection(Kinematics{}, Vec2{X: math.MaxFloat64}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite on overflow, got %v", err)
	}
}

func TestOutsideArena(t *testing.T) {
	if OutsideArena(Vec2{X: 400, Y: 0}) {
		t.Error("a player exactly on the rim is still inside")
	}
	if !OutsideArena(Vec2{X: 400.0001, Y: 0}) {
		t.Error("a player past the rim should be outside")
	}
	if !OutsideArena(Vec2{X: 300, Y: 300}) {
		t.Error("(300,300) is ~424 from center and should be outside")
	}
	if OutsideArena(Vec2{X: SpawnX, Y: SpawnY}) {
		t.Error("spawn point must be inside the arena")
	}
}

func TestDefaultBands(t *testing.T) {
	bands := DefaultBands(DefaultBandCount)
	if len(bands) != DefaultBandCount {
		t.Fatalf("expected %d bands, got %d", DefaultBandCount, len(bands))
	}
	for i, b := range bands {
		if b.ID != i {
			t.Errorf("band %d has id %d", i, b.ID)
		}
		if b.SpringConstant <= 0 {
			t.Errorf("band %d has non-positive spring constant", i)
		}
		if b.Stretch != 0 {
			t.Errorf("band %d starts stretched", i)
		}
	}
}
