package control

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/rov"
)

// Mixer converts intent into motor throttles and command sequences. It holds
// only tuning; every method is a pure function of its arguments.
type Mixer struct {
	weights   *mgl64.MatMxN
	deadzone  float64
	gain      float64
	emergency float64
}

// NewMixer builds a mixer from the control tuning. The mixing matrix must be
// rov.MotorCount rows of config.AxisCount weights.
func NewMixer(cfg config.ControlConfig) (*Mixer, error) {
	if len(cfg.Mixing) != rov.MotorCount {
		return nil, fmt.Errorf("mixing matrix needs %d rows, got %d", rov.MotorCount, len(cfg.Mixing))
	}
	weights := mgl64.NewMatrix(rov.MotorCount, config.AxisCount)
	for m, row := range cfg.Mixing {
		if len(row) != config.AxisCount {
			return nil, fmt.Errorf("mixing row %d needs %d weights, got %d", m, config.AxisCount, len(row))
		}
		for a, w := range row {
			weights.Set(m, a, w)
		}
	}
	return &Mixer{
		weights:   weights,
		deadzone:  cfg.Deadzone,
		gain:      cfg.NormalGain,
		emergency: cfg.EmergencyMultiplier,
	}, nil
}

// Throttles computes the 16-bit output of every motor for s.
func (m *Mixer) Throttles(s ControlState) [rov.MotorCount]int16 {
	axes := s.Axes()
	for i, v := range axes {
		if math.Abs(v) < m.deadzone {
			axes[i] = 0
		}
	}

	scale := m.gain * math.MaxInt16
	if s.ThrustMode == ThrustEmergency {
		scale *= m.emergency
	}

	mixed := m.weights.MulNx1(nil, mgl64.NewVecNFromData(axes[:])).Raw()

	var out [rov.MotorCount]int16
	for i, v := range mixed {
		out[i] = toThrottle(clampUnit(v) * scale)
	}
	return out
}

// Diff returns the commands that move the vehicle from prev to curr, in
// order: master relay, motors 0..5, lights, sampler. The sampler command is
// emitted whenever curr.SamplerRelease is set, whatever prev says.
func (m *Mixer) Diff(prev, curr ControlState) []rov.Command {
	var cmds []rov.Command

	if prev.PowerMaster != curr.PowerMaster {
		cmds = append(cmds, masterCommand(curr.PowerMaster))
	}

	before := m.Throttles(prev)
	after := m.Throttles(curr)
	for _, id := range rov.Motors() {
		if before[id] != after[id] {
			cmds = append(cmds, rov.ControlMotor(id, after[id]))
		}
	}

	if prev.PowerLights != curr.PowerLights {
		cmds = append(cmds, lightsCommand(curr.PowerLights))
	}

	if curr.SamplerRelease {
		cmds = append(cmds, samplerCommand(curr.SamplerReleaseMode))
	}
	return cmds
}

// Resync returns the absolute command set for curr: both relays and every
// motor, plus the sampler command when it is pending. It is used after a
// send failure, when the vehicle may have missed part of the last diff.
func (m *Mixer) Resync(curr ControlState) []rov.Command {
	cmds := []rov.Command{masterCommand(curr.PowerMaster)}
	throttles := m.Throttles(curr)
	for _, id := range rov.Motors() {
		cmds = append(cmds, rov.ControlMotor(id, throttles[id]))
	}
	cmds = append(cmds, lightsCommand(curr.PowerLights))
	if curr.SamplerRelease {
		cmds = append(cmds, samplerCommand(curr.SamplerReleaseMode))
	}
	return cmds
}

func masterCommand(on bool) rov.Command {
	if on {
		return rov.MasterOn()
	}
	return rov.MasterOff()
}

func lightsCommand(on bool) rov.Command {
	if on {
		return rov.LightsOn()
	}
	return rov.LightsOff()
}

func samplerCommand(mode SamplerReleaseMode) rov.Command {
	if mode == ReleaseAll {
		return rov.CollectSamples(rov.SampleAmountAll)
	}
	return rov.CollectSamples(1)
}

func toThrottle(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
