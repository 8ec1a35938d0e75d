package command

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vcontroller/internal/capture"
	"vcontroller/internal/client"
	"vcontroller/internal/protocol"
)

var controlActions = map[string]protocol.Action{
	"reload":          protocol.ActionReloadDevice,
	"stop-controller": protocol.ActionStopController,
	"stop-server":     protocol.ActionStopServer,
}

// controlCmd sends one CONTROL frame without capturing the keyboard
var controlCmd = &cobra.Command{
	Use:       "control <reload|stop-controller|stop-server>",
	Short:     "Send a control request to the server",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"reload", "stop-controller", "stop-server"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action, ok := controlActions[strings.ToLower(args[0])]
		if !ok {
			names := make([]string, 0, len(controlActions))
			for n := range controlActions {
				names = append(names, n)
			}
			sort.Strings(names)
			return fmt.Errorf("unknown control action %q (want one of %s)", args[0], strings.Join(names, ", "))
		}

		tcpClient := client.NewTCPClient(serverAddr())
		if err := tcpClient.Connect(); err != nil {
			return err
		}
		defer tcpClient.Disconnect()

		if err := tcpClient.Send(protocol.NewControl(action)); err != nil {
			return err
		}
		color.Green("Sent %s to %s", action, tcpClient.Addr())
		return nil
	},
}

// tapCmd presses and releases each named key in order
var tapCmd = &cobra.Command{
	Use:   "tap <key>...",
	Short: "Press and release keys on the server",
	Long: `Press and release each key in order, as if typed on the local keyboard.
Keys use the same names the keyboard capture sends, e.g. a, 1, Key.enter, Key.shift_r.
Sentinel keys keep their meaning: Key.esc stops the server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tcpClient := client.NewTCPClient(serverAddr())
		if err := tcpClient.Connect(); err != nil {
			return err
		}
		defer tcpClient.Disconnect()

		source := capture.NewReplaySource(capture.Taps(args...)...)
		if err := client.NewRelay(source, tcpClient, slog.Default()).Run(cmd.Context()); err != nil {
			return err
		}
		color.Green("Sent %d messages to %s", tcpClient.GetStats().MessagesSent, tcpClient.Addr())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(controlCmd)
	rootCmd.AddCommand(tapCmd)
}
