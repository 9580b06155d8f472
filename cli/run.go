package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencnc/stepcore/hw"
	"github.com/opencnc/stepcore/machine"
	"github.com/opencnc/stepcore/step"
)

var runOutput string

var runCmd = &cobra.Command{
	Use:   "run <instructions>",
	Short: "Execute an instruction script on the simulated clock or real pins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := machine.Load(profilePath)
		if err != nil {
			return err
		}
		instrs, err := loadInstructions(args[0], profile.Axes)
		if err != nil {
			return err
		}
		switch runOutput {
		case "sim":
			return runOnSim(profile, instrs)
		case "gpio":
			return runOnGPIO(profile, instrs)
		default:
			return fmt.Errorf("unknown output %q (want sim or gpio)", runOutput)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runOutput, "output", "sim",
		"pulse output backend: sim or gpio")
}

func runOnSim(profile *machine.Profile, instrs []Instruction) error {
	sim, core, notes, err := newSimCore(profile)
	if err != nil {
		return err
	}
	for i, in := range instrs {
		if err := core.Execute(in.Kind, in.Payload); err != nil {
			return fmt.Errorf("instruction %d: %w", i+1, err)
		}
		sim.Run()
	}

	elapsed := sim.Now()
	fmt.Printf("instructions: %d\n", len(instrs))
	fmt.Printf("elapsed: %d ticks (%s)\n", elapsed, ticksToDuration(elapsed))
	for axis := 0; axis < profile.Axes; axis++ {
		fmt.Printf("axis %d position: %+d steps\n", axis, core.Controller().StepPosition(axis))
	}
	fmt.Printf("notifications: %s\n", notes.summary())
	return nil
}

// runOnGPIO drives the profile's pins directly through the software
// timer backend, waiting for each instruction's finish notification
// before sending the next.
func runOnGPIO(profile *machine.Profile, instrs []Instruction) error {
	out, err := hw.NewGPIOOutput(profile)
	if err != nil {
		return err
	}
	defer out.DisableTimer()

	notes := &noteCounter{}
	finished := make(chan struct{}, 1)
	notifier := step.NotifierFunc(func(b byte) {
		notes.Notify(b)
		if b == 'F' {
			finished <- struct{}{}
		}
	})
	core, err := step.NewCore(step.Config{
		Axes:          profile.Axes,
		DirOnNegative: !profile.InvertDir,
	}, out, notifier)
	if err != nil {
		return err
	}

	for i, in := range instrs {
		if err := core.Execute(in.Kind, in.Payload); err != nil {
			return fmt.Errorf("instruction %d: %w", i+1, err)
		}
		select {
		case <-finished:
		case <-time.After(10 * time.Minute):
			return fmt.Errorf("instruction %d: timed out waiting for completion", i+1)
		}
		log.Printf("[run] instruction %d/%d finished", i+1, len(instrs))
	}

	for axis := 0; axis < profile.Axes; axis++ {
		fmt.Printf("axis %d position: %+d steps\n", axis, core.Controller().StepPosition(axis))
	}
	fmt.Printf("notifications: %s\n", notes.summary())
	return nil
}

func loadInstructions(path string, axes int) ([]Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseInstructions(f, axes)
}

// newSimCore wires an isolated core over the simulated output.
func newSimCore(profile *machine.Profile) (*step.SimOutput, *step.Core, *noteCounter, error) {
	sim := step.NewSimOutput()
	sim.AutoDrain = true
	notes := &noteCounter{}
	core, err := step.NewCore(step.Config{
		Axes:          profile.Axes,
		DirOnNegative: !profile.InvertDir,
	}, sim, notes)
	if err != nil {
		return nil, nil, nil, err
	}
	return sim, core, notes, nil
}

// noteCounter tallies notification bytes.
type noteCounter struct {
	counts map[byte]int
	order  []byte
}

func (n *noteCounter) Notify(b byte) {
	if n.counts == nil {
		n.counts = make(map[byte]int)
	}
	if n.counts[b] == 0 {
		n.order = append(n.order, b)
	}
	n.counts[b]++
}

func (n *noteCounter) summary() string {
	if len(n.order) == 0 {
		return "none"
	}
	s := ""
	for i, b := range n.order {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%c=%d", b, n.counts[b])
	}
	return s
}

func ticksToDuration(ticks uint64) string {
	return (step.TickDuration * time.Duration(ticks)).String()
}
