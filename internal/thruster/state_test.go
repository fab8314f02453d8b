package thruster

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(1, 1000, 0.02, -1000, 1000, mgl64.Vec3{1, 0, 0})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return s
}

func TestThrustToAngularVelocity(t *testing.T) {
	s := newTestState(t)

	// 100 / (1000 * 1 * 0.02^4) = 625000
	got := s.ThrustToAngularVelocity(100)
	if math.Abs(got-math.Sqrt(625000)) > 1e-9 {
		t.Errorf("expected %.6f, got %.6f", math.Sqrt(625000), got)
	}

	if w := s.ThrustToAngularVelocity(0); w != 0 || math.Signbit(w) {
		t.Errorf("zero thrust should give +0, got %v", w)
	}
}

func TestThrustToAngularVelocitySignAndOddness(t *testing.T) {
	s := newTestState(t)

	for _, thrust := range []float64{1e-9, 0.5, 1, 3.7, 100, 999.9, 1000, 1e6} {
		pos := s.ThrustToAngularVelocity(thrust)
		neg := s.ThrustToAngularVelocity(-thrust)
		if pos <= 0 {
			t.Errorf("thrust %v: expected positive, got %v", thrust, pos)
		}
		if neg >= 0 {
			t.Errorf("thrust %v: expected negative, got %v", -thrust, neg)
		}
		if neg != -pos {
			t.Errorf("thrust %v: not odd, %v vs %v", thrust, pos, neg)
		}
	}
}

func TestThrustToAngularVelocityMonotonic(t *testing.T) {
	s := newTestState(t)

	prev := s.ThrustToAngularVelocity(-1000)
	for thrust := -999.0; thrust <= 1000; thrust += 7.3 {
		w := s.ThrustToAngularVelocity(thrust)
		if w < prev {
			t.Fatalf("not monotonic at %v: %v < %v", thrust, w, prev)
		}
		prev = w
	}
}

func TestAngularVelocityToThrustInverse(t *testing.T) {
	s := newTestState(t)

	for _, thrust := range []float64{-700, -1, 0, 2, 300} {
		back := s.AngularVelocityToThrust(s.ThrustToAngularVelocity(thrust))
		if math.Abs(back-thrust) > 1e-9 {
			t.Errorf("round trip %v -> %v", thrust, back)
		}
	}
}

func TestSetThrustCommandClamps(t *testing.T) {
	s := newTestState(t)

	tests := []struct {
		in   float64
		want float64
	}{
		{2000, 1000},
		{-5000, -1000},
		{42, 42},
		{math.NaN(), 0},
		{math.Inf(1), 1000},
		{math.Inf(-1), -1000},
	}

	for _, tt := range tests {
		s.SetThrustCommand(tt.in)
		if got := s.ThrustCommand(); got != tt.want {
			t.Errorf("SetThrustCommand(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestNaNClampsIntoRangeExcludingZero(t *testing.T) {
	s, err := NewState(1, 1000, 0.02, 10, 50, mgl64.Vec3{0, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if s.ThrustCommand() != 10 {
		t.Errorf("initial command should be clamped to 10, got %v", s.ThrustCommand())
	}
	s.SetThrustCommand(30)
	s.SetThrustCommand(math.NaN())
	if s.ThrustCommand() != 10 {
		t.Errorf("NaN should store clamped zero 10, got %v", s.ThrustCommand())
	}
	if s.Axis != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("axis should be normalized, got %v", s.Axis)
	}
}

func TestNewStateRejectsInvalid(t *testing.T) {
	axis := mgl64.Vec3{1, 0, 0}
	tests := []struct {
		name                     string
		coeff, density, diameter float64
		cmdMin, cmdMax           float64
		axis                     mgl64.Vec3
	}{
		{"zero coefficient", 0, 1000, 0.02, -1, 1, axis},
		{"negative density", 1, -1, 0.02, -1, 1, axis},
		{"zero diameter", 1, 1000, 0, -1, 1, axis},
		{"nan diameter", 1, 1000, math.NaN(), -1, 1, axis},
		{"inf density", 1, math.Inf(1), 0.02, -1, 1, axis},
		{"underflowing diameter", 1, 1000, 1e-100, -1, 1, axis},
		{"equal bounds", 1, 1000, 0.02, 5, 5, axis},
		{"inverted bounds", 1, 1000, 0.02, 5, -5, axis},
		{"zero axis", 1, 1000, 0.02, -1, 1, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewState(tt.coeff, tt.density, tt.diameter, tt.cmdMin, tt.cmdMax, tt.axis)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestConcurrentCommandAccess(t *testing.T) {
	s := newTestState(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s.SetThrustCommand(float64((i*500+j)%3000 - 1500))
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 2000; j++ {
			v := s.ThrustCommand()
			if v < s.CommandMin || v > s.CommandMax {
				t.Errorf("command %v escaped bounds", v)
				return
			}
		}
	}()
	wg.Wait()
}
