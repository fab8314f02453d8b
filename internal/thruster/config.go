package thruster

import "github.com/san-kum/thrustsim/internal/transport"

const (
	DefaultFluidDensity = 1000.0
	DefaultPGain        = 0.1
	DefaultIGain        = 0.0
	DefaultDGain        = 0.0
	DefaultCommandMax   = 1000.0
	DefaultCommandMin   = -1000.0

	// integral term bounds of the speed controller
	DefaultIMax = 1.0
	DefaultIMin = -1.0

	// DeadBand is the angular velocity error in rad/s below which no
	// corrective torque is applied.
	DeadBand = 0.1

	TopicSuffix       = "cmd_thrust"
	LegacyTopicSuffix = "cmd_pos"
)

// Config is the thruster's setup. Pointer fields distinguish an absent key
// from an explicit zero.
type Config struct {
	Namespace         string   `yaml:"namespace,omitempty"`
	JointName         string   `yaml:"joint_name"`
	ThrustCoefficient *float64 `yaml:"thrust_coefficient,omitempty"`
	PropellerDiameter *float64 `yaml:"propeller_diameter,omitempty"`
	FluidDensity      *float64 `yaml:"fluid_density,omitempty"`
	PGain             *float64 `yaml:"p_gain,omitempty"`
	IGain             *float64 `yaml:"i_gain,omitempty"`
	DGain             *float64 `yaml:"d_gain,omitempty"`
	CommandMin        *float64 `yaml:"command_min,omitempty"`
	CommandMax        *float64 `yaml:"command_max,omitempty"`
}

// Float returns a pointer to v, for filling Config literals.
func Float(v float64) *float64 { return &v }

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Gains returns the configured PID gains, defaulting each absent one.
func (c Config) Gains() (p, i, d float64) {
	return valueOr(c.PGain, DefaultPGain), valueOr(c.IGain, DefaultIGain), valueOr(c.DGain, DefaultDGain)
}

// CommandTopic is where thrust commands for the joint arrive.
func CommandTopic(namespace, joint string) string {
	return transport.AsValidTopic("/model/" + namespace + "/joint/" + joint + "/" + TopicSuffix)
}

// LegacyCommandTopic carries the same commands under the older cmd_pos name.
func LegacyCommandTopic(namespace, joint string) string {
	return transport.AsValidTopic("/model/" + namespace + "/joint/" + joint + "/" + LegacyTopicSuffix)
}
