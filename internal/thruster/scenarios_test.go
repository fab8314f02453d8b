package thruster

import (
	"context"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const thrustTopic = "/model/sub/joint/propeller_joint/cmd_thrust"

var _ = Describe("Thruster", func() {
	var (
		th   *Thruster
		bus  *fakeBus
		body *fakeBody
		cfg  Config
	)

	BeforeEach(func() {
		th = New(nil)
		bus = newFakeBus()
		body = newFakeBody()
		cfg = Config{
			JointName:         "propeller_joint",
			ThrustCoefficient: Float(1),
			PropellerDiameter: Float(0.02),
			FluidDensity:      Float(1000),
		}
	})

	Context("with a fully specified configuration", func() {
		BeforeEach(func() {
			Expect(th.Configure(context.Background(), cfg, newFakeModel(), bus)).To(Succeed())
		})

		It("converts a 100 N command into the matching propeller speed", func() {
			Expect(bus.publish(thrustTopic, 100)).To(BeTrue())

			rec := &recorder{}
			th.AddObserver(rec)
			th.PreUpdate(UpdateInfo{Dt: step}, body, body)

			want := math.Sqrt(100 / (1000 * 1 * math.Pow(0.02, 4)))
			Expect(rec.reports).To(HaveLen(1))
			Expect(rec.reports[0].DesiredAngularVelocity).To(BeNumerically("~", want, 1e-9))
			Expect(th.State().ThrustToAngularVelocity(100)).To(BeNumerically("~", 790.569, 1e-3))
		})

		It("clamps a 2000 N command to the 1000 N maximum", func() {
			bus.publish(thrustTopic, 2000)
			Expect(th.State().ThrustCommand()).To(Equal(1000.0))

			th.PreUpdate(UpdateInfo{Dt: step}, body, body)
			Expect(body.last().Force.X()).To(Equal(1000.0))
		})

		It("applies nothing while paused", func() {
			bus.publish(thrustTopic, 800)
			body.angVel = mgl64.Vec3{-300, 12, 4}

			for i := 0; i < 5; i++ {
				th.PreUpdate(UpdateInfo{Dt: step, Paused: true}, body, body)
			}
			Expect(body.wrenches).To(BeEmpty())
		})

		It("keeps the last of several commands between steps", func() {
			for _, v := range []float64{10, -20, 30, math.NaN()} {
				bus.publish(thrustTopic, v)
			}
			th.PreUpdate(UpdateInfo{Dt: step}, body, body)
			Expect(body.last().Force).To(Equal(mgl64.Vec3{0, 0, 0}))
		})

		It("accumulates rather than replaces across steps", func() {
			bus.publish(thrustTopic, 100)
			th.PreUpdate(UpdateInfo{Dt: step}, body, body)
			th.PreUpdate(UpdateInfo{Dt: step}, body, body)
			Expect(body.wrenches).To(HaveLen(2))
		})

		It("keeps commands in bounds while stepping concurrently", func() {
			var wg sync.WaitGroup
			for g := 0; g < 4; g++ {
				wg.Add(1)
				go func(g int) {
					defer GinkgoRecover()
					defer wg.Done()
					for i := 0; i < 250; i++ {
						th.State().SetThrustCommand(float64(g*1000 - 1500 + i))
					}
				}(g)
			}
			for i := 0; i < 250; i++ {
				th.PreUpdate(UpdateInfo{Dt: step}, body, body)
			}
			wg.Wait()

			for _, w := range body.wrenches {
				Expect(math.Abs(w.Force.X())).To(BeNumerically("<=", 1000))
			}
		})
	})

	Context("without a thrust coefficient", func() {
		BeforeEach(func() {
			cfg.ThrustCoefficient = nil
		})

		It("stays unconfigured and ignores steps", func() {
			err := th.Configure(context.Background(), cfg, newFakeModel(), bus)
			Expect(err).To(MatchError(ErrMissingParameter))
			Expect(th.Phase()).To(Equal(Unconfigured))
			Expect(bus.handlers).To(BeEmpty())

			for i := 0; i < 3; i++ {
				th.PreUpdate(UpdateInfo{Dt: step}, body, body)
			}
			Expect(body.wrenches).To(BeEmpty())
		})
	})

	Context("with integral and derivative gains present", func() {
		BeforeEach(func() {
			cfg.IGain = Float(0.2)
			cfg.DGain = Float(0.05)
		})

		It("uses the configured gains", func() {
			Expect(th.Configure(context.Background(), cfg, newFakeModel(), bus)).To(Succeed())
			Expect(th.PID().Ki).To(Equal(0.2))
			Expect(th.PID().Kd).To(Equal(0.05))
		})
	})
})
