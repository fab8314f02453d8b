package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/thrustsim/internal/spatial"
	"github.com/san-kum/thrustsim/internal/thruster"
)

type testHost struct {
	steps   int
	elapsed float64
	pending mgl64.Vec3
	applied []mgl64.Vec3
	fail    bool
}

func (h *testHost) WorldPose(e spatial.Entity) (spatial.Pose, bool) {
	return spatial.IdentityPose(), true
}

func (h *testHost) WorldAngularVelocity(e spatial.Entity) (mgl64.Vec3, bool) {
	return mgl64.Vec3{}, true
}

func (h *testHost) AddWorldWrench(e spatial.Entity, force, torque mgl64.Vec3) {
	h.pending = h.pending.Add(force)
}

func (h *testHost) Step(dt float64) error {
	if h.fail {
		return errors.New("diverged")
	}
	h.steps++
	h.elapsed += dt
	h.applied = append(h.applied, h.pending)
	h.pending = mgl64.Vec3{}
	return nil
}

type testSystem struct {
	infos []thruster.UpdateInfo
}

func (s *testSystem) PreUpdate(info thruster.UpdateInfo, bodies thruster.BodyReader, sink thruster.WrenchApplier) {
	s.infos = append(s.infos, info)
	if !info.Paused {
		sink.AddWorldWrench(1, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
	}
}

type testObserver struct {
	count int
}

func (o *testObserver) OnStep(info thruster.UpdateInfo) { o.count++ }

func TestSimulatorRun(t *testing.T) {
	host := &testHost{}
	sys := &testSystem{}
	obs := &testObserver{}

	s := New(host)
	s.AddSystem(sys)
	s.AddObserver(obs)

	st, err := s.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if st.StepsTaken != 10 || host.steps != 10 {
		t.Errorf("expected 10 steps, got %d (host %d)", st.StepsTaken, host.steps)
	}
	if obs.count != 10 {
		t.Errorf("expected 10 observations, got %d", obs.count)
	}
	if math.Abs(st.SimTime-1.0) > 1e-9 {
		t.Errorf("expected sim time 1, got %f", st.SimTime)
	}
	for i, info := range sys.infos {
		if info.Iterations != uint64(i) {
			t.Errorf("step %d: iterations %d", i, info.Iterations)
		}
		if info.Dt != 100*time.Millisecond {
			t.Errorf("step %d: dt %v", i, info.Dt)
		}
	}
	for i, f := range host.applied {
		if f != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("step %d: expected the system's force, got %v", i, f)
		}
	}
}

func TestSimulatorPauses(t *testing.T) {
	host := &testHost{}
	sys := &testSystem{}

	s := New(host)
	s.AddSystem(sys)

	cfg := Config{Dt: 0.1, Duration: 0.5, Pauses: []Pause{{At: 2, Steps: 3}}}
	st, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if st.PausedSteps != 3 || st.StepsTaken != 5 || st.Iterations != 8 {
		t.Errorf("unexpected stats %+v", st)
	}
	if host.steps != 5 {
		t.Errorf("host should not step while paused, stepped %d times", host.steps)
	}

	for _, i := range []int{2, 3, 4} {
		info := sys.infos[i]
		if !info.Paused || info.Dt != 0 {
			t.Errorf("iteration %d should be paused with zero dt, got %+v", i, info)
		}
		if info.SimTime != 200*time.Millisecond {
			t.Errorf("iteration %d: sim time should hold at 0.2s, got %v", i, info.SimTime)
		}
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&testHost{})
			if _, err := s.Run(context.Background(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorHostError(t *testing.T) {
	s := New(&testHost{fail: true})
	if _, err := s.Run(context.Background(), Config{Dt: 0.1, Duration: 1}); err == nil {
		t.Error("expected host error to surface")
	}
}

func TestSimulatorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	host := &testHost{}
	_, err := New(host).Run(ctx, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if host.steps != 0 {
		t.Errorf("expected no steps, got %d", host.steps)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	host := &testHost{}
	s := New(host)

	var seen int
	err := s.RunWithCallback(context.Background(), Config{Dt: 0.1, Duration: 10}, func(info thruster.UpdateInfo) bool {
		seen++
		return seen < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 4 || host.steps != 4 {
		t.Errorf("expected to stop after 4 steps, saw %d (host %d)", seen, host.steps)
	}
}

func TestPreStepRunsBeforeSystems(t *testing.T) {
	s := New(&testHost{})
	var order []string
	s.AddPreStep(func(info thruster.UpdateInfo) { order = append(order, "pre") })
	s.AddSystem(systemFunc(func() { order = append(order, "system") }))

	if err := s.Step(0.1, false); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "pre" || order[1] != "system" {
		t.Errorf("unexpected order %v", order)
	}
}

type systemFunc func()

func (f systemFunc) PreUpdate(thruster.UpdateInfo, thruster.BodyReader, thruster.WrenchApplier) { f() }
