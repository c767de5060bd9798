package generator

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/itohio/wavedaq/pkg/config"
	"github.com/itohio/wavedaq/pkg/labels"
	"github.com/itohio/wavedaq/pkg/wave"
)

const (
	// DefaultDwell is the time spent on a step with no dwell of its own.
	DefaultDwell = 60 * time.Second
	// DefaultGap is the pause between steps.
	DefaultGap = 2 * time.Second
)

// Step is one generator sequencing step.
type Step struct {
	Waveform  wave.Type
	Frequency int
	Dwell     time.Duration
}

// Plan runs an ordered list of steps against the generator, announcing each
// step's label before configuring it.
type Plan struct {
	driver    *Driver
	announcer *Announcer
	steps     []Step
	gap       time.Duration
}

// NewPlan creates a plan. The announcer may be nil when no logging host
// should be notified.
func NewPlan(driver *Driver, announcer *Announcer, steps []Step, gap time.Duration) *Plan {
	if gap <= 0 {
		gap = DefaultGap
	}

	return &Plan{
		driver:    driver,
		announcer: announcer,
		steps:     steps,
		gap:       gap,
	}
}

// PlanSteps builds the step list from the configuration. An empty configured
// plan walks every waveform once with the default frequency and dwell.
func PlanSteps(cfg config.GeneratorConfig) ([]Step, error) {
	freq := cfg.Frequency
	if freq <= 0 {
		freq = DefaultFrequency
	}
	dwell := cfg.Dwell
	if dwell <= 0 {
		dwell = DefaultDwell
	}

	if len(cfg.Plan) == 0 {
		steps := make([]Step, 0, len(wave.Types()))
		for _, t := range wave.Types() {
			steps = append(steps, Step{Waveform: t, Frequency: freq, Dwell: dwell})
		}
		return steps, nil
	}

	steps := make([]Step, 0, len(cfg.Plan))
	for i, s := range cfg.Plan {
		t, err := wave.ParseType(s.Waveform)
		if err != nil {
			return nil, fmt.Errorf("plan step %d: %w", i, err)
		}
		step := Step{Waveform: t, Frequency: s.Frequency, Dwell: s.Dwell}
		if step.Frequency <= 0 {
			step.Frequency = freq
		}
		if step.Dwell <= 0 {
			step.Dwell = dwell
		}
		steps = append(steps, step)
	}

	return steps, nil
}

// Run executes the plan: announce, configure, start, dwell, stop for every
// step, with a gap between steps. Cancellation stops the generator and
// returns the context error.
func (p *Plan) Run(ctx context.Context) error {
	for i, step := range p.steps {
		log.Printf("Step %d/%d: %s at %d Hz for %s",
			i+1, len(p.steps), step.Waveform, step.Frequency, step.Dwell)

		if p.announcer != nil {
			label := labels.New(int(step.Waveform), step.Waveform.String())
			if err := p.announcer.Announce(label); err != nil {
				log.Warnf("Label announcement failed: %v", err)
			}
		}

		if err := p.driver.Configure(ctx, step.Waveform, step.Frequency); err != nil {
			return err
		}
		if err := p.driver.Start(); err != nil {
			return err
		}

		if err := sleep(ctx, step.Dwell); err != nil {
			_ = p.driver.Stop()
			return err
		}
		if err := p.driver.Stop(); err != nil {
			return err
		}

		if i < len(p.steps)-1 {
			if err := sleep(ctx, p.gap); err != nil {
				return err
			}
		}
	}

	return nil
}
