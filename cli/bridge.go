package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencnc/stepcore/link"
	"github.com/opencnc/stepcore/machine"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge <instructions>",
	Short: "Send an instruction script to a controller board",
	Long: `bridge frames each instruction for the wire, writes it to the
profile's serial port and logs the notifications the firmware sends
back. It waits for one 'F' per instruction before sending the next, so
the board's schedule ring never sees more than one instruction of
back-pressure from the host side.`,
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

		conn, err := link.Open(profile.Serial.Port, profile.Serial.Baud)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		finished := make(chan struct{}, len(instrs))
		go func() {
			err := conn.Notifications(ctx, func(n link.Notification) {
				log.Printf("[bridge] %s", n)
				if n.Kind == link.NoteFinished {
					finished <- struct{}{}
				}
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("[bridge] notification stream: %v", err)
			}
		}()

		for i, in := range instrs {
			frame, err := frameInstruction(in, profile.Axes)
			if err != nil {
				return fmt.Errorf("instruction %d: %w", i+1, err)
			}
			if err := conn.Send(frame); err != nil {
				return fmt.Errorf("instruction %d: %w", i+1, err)
			}
			log.Printf("[bridge] sent instruction %d/%d (%s)", i+1, len(instrs), in.Kind)

			select {
			case <-finished:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		log.Printf("[bridge] all %d instructions finished", len(instrs))
		return nil
	},
}

func frameInstruction(in Instruction, axes int) ([]byte, error) {
	size := in.Kind.DataSize()
	payloads := make([][]byte, axes)
	for i := range payloads {
		payloads[i] = in.Payload[i*size : (i+1)*size]
	}
	return link.EncodeFrame(in.Kind, payloads)
}
