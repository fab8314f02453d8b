package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/thrustsim/internal/experiment"
	"github.com/san-kum/thrustsim/internal/thruster"
)

const (
	historyCapacity = 600
	ThrustStep      = 50.0
	tickRate        = time.Second / 30
)

type TickMsg time.Time

// Model drives an experiment from the terminal.
type Model struct {
	exp          *experiment.Experiment
	dt           float64
	stepsPerTick int
	running      bool
	showHelp     bool
	err          error

	speedHistory  []float64
	torqueHistory []float64
	last          experiment.Sample
}

// NewModel wraps an experiment that has already been set up. Each tick
// advances stepsPerTick steps.
func NewModel(exp *experiment.Experiment, stepsPerTick int) Model {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	m := Model{
		exp:           exp,
		dt:            exp.Config().Sim.Dt,
		stepsPerTick:  stepsPerTick,
		running:       true,
		speedHistory:  make([]float64, 0, historyCapacity),
		torqueHistory: make([]float64, 0, historyCapacity),
	}
	if s := exp.Samples(); len(s) > 0 {
		m.last = s[len(s)-1]
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.nudgeThrust(ThrustStep)
		case "-", "_":
			m.nudgeThrust(-ThrustStep)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// Command is the thrust the thruster currently holds.
func (m Model) Command() float64 {
	if st := m.exp.Thruster().State(); st != nil {
		return st.ThrustCommand()
	}
	return 0
}

func (m Model) Running() bool { return m.running }

func (m *Model) nudgeThrust(delta float64) {
	if _, err := m.exp.Publish(thruster.TopicSuffix, m.Command()+delta); err != nil {
		m.err = err
	}
}

// advance steps the experiment; while paused the thruster still sees the
// ticks but the world holds still.
func (m *Model) advance() {
	sim := m.exp.Simulator()
	for i := 0; i < m.stepsPerTick; i++ {
		if err := sim.Step(m.dt, !m.running); err != nil {
			m.err = err
			return
		}
		if !m.running {
			return
		}
	}

	samples := m.exp.Samples()
	m.last = samples[len(samples)-1]
	m.speedHistory = appendCapped(m.speedHistory, m.last.PropellerSpeed)
	m.torqueHistory = appendCapped(m.torqueHistory, m.last.Torque)
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m Model) View() string {
	var s strings.Builder

	cfg := m.exp.Config()
	s.WriteString(titleStyle.Render(fmt.Sprintf("thrustsim · %s / %s", cfg.Model, cfg.Thruster.JointName)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(statusError.Render("ERROR " + m.err.Error()))
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING"))
	default:
		s.WriteString(statusPaused.Render("PAUSED"))
	}
	s.WriteString("  " + m.exp.Thruster().Phase().String() + "\n\n")

	desired := 0.0
	if st := m.exp.Thruster().State(); st != nil {
		desired = st.ThrustToAngularVelocity(m.Command())
	}
	rows := [][2]string{
		{"Time", fmt.Sprintf("%.3fs", m.last.Time)},
		{"Command", fmt.Sprintf("%.1f N", m.Command())},
		{"Target ω", fmt.Sprintf("%.2f rad/s", desired)},
		{"Propeller ω", fmt.Sprintf("%.2f rad/s", m.last.PropellerSpeed)},
		{"Thrust out", fmt.Sprintf("%.1f N", m.last.ProducedThrust)},
		{"Torque", fmt.Sprintf("%.4f N·m", m.last.Torque)},
		{"Hull x", fmt.Sprintf("%.4f m", m.last.Position.X())},
		{"Hull vx", fmt.Sprintf("%.4f m/s", m.last.Velocity.X())},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}

	if len(m.speedHistory) > 1 {
		chart := asciigraph.Plot(m.speedHistory,
			asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("propeller ω (rad/s)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
		s.WriteString(labelStyle.Render("Torque") + Sparkline(m.torqueHistory, 50) + "\n")
	}

	if m.showHelp {
		s.WriteString(keyHint.Render("space pause/resume · +/- thrust ±50 N · ? help · q quit"))
	} else {
		s.WriteString(keyHint.Render("? help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, panelStyle.Render(s.String()))
}
