package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencnc/stepcore/machine"
	"github.com/opencnc/stepcore/step"
)

var traceOutput string

var traceCmd = &cobra.Command{
	Use:   "trace <instructions>",
	Short: "Dump the pulse timeline of an instruction script",
	Long: `trace runs the script on the simulated clock and writes one line per
output write: the tick time, the raw activation mask, and which axes
clocked. The text form plots easily and diffs cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := machine.Load(profilePath)
		if err != nil {
			return err
		}
		instrs, err := loadInstructions(args[0], profile.Axes)
		if err != nil {
			return err
		}

		sim, core, _, err := newSimCore(profile)
		if err != nil {
			return err
		}
		for i, in := range instrs {
			if err := core.Execute(in.Kind, in.Payload); err != nil {
				return fmt.Errorf("instruction %d: %w", i+1, err)
			}
			sim.Run()
		}

		out := os.Stdout
		if traceOutput != "" {
			f, err := os.Create(traceOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return writeTrace(out, sim.Events())
	},
}

func init() {
	traceCmd.Flags().StringVarP(&traceOutput, "output", "o", "", "write the trace to a file")
}

func writeTrace(f *os.File, events []step.PulseEvent) error {
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# tick mask axes")
	for _, e := range events {
		fmt.Fprintf(w, "%d %#02x %s\n", e.At, e.Mask, axesOf(e))
	}
	return w.Flush()
}

func axesOf(e step.PulseEvent) string {
	low := e.ClkLow()
	if low == 0 {
		return "-"
	}
	s := ""
	for i := 0; i < step.NumSlots; i++ {
		if low&(byte(1)<<(2*i)) != 0 {
			s += fmt.Sprintf("%d", i)
		}
	}
	return s
}
