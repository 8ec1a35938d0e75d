package command

// root.go defines the root command: capture the local keyboard and relay
// every key to a vc-server.

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vcontroller/internal/capture"
	"vcontroller/internal/client"
	"vcontroller/internal/config"
	"vcontroller/internal/logging"
)

var (
	cfg       = mustLoadConfig()
	host      string // server host
	port      int    // server port
	inputPath string // keyboard device, empty = auto-detect
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vc-client [host] [port]",
	Short: "vc-client - relay local key presses to a virtual controller",
	Long: `vc-client reads key presses and releases from a local keyboard and sends them
to a vc-server, which replays them on a virtual input device.

Special keys (acted on when released):
- Backspace   reload the virtual device on the server
- Shift+T     close this connection
- Esc         stop the server and exit`,
	Args:              cobra.MaximumNArgs(2),
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			host = args[0]
		}
		if len(args) > 1 {
			p, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[1])
			}
			port = p
		}

		logger := slog.Default()
		tcpClient := client.NewTCPClient(serverAddr())
		if err := tcpClient.Connect(); err != nil {
			return err
		}
		defer tcpClient.Disconnect()
		color.Green("Connected to %s", tcpClient.Addr())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		source := capture.NewEvdevSource(inputPath, logger)
		if err := client.NewRelay(source, tcpClient, logger).Run(ctx); err != nil {
			return err
		}

		stats := tcpClient.GetStats()
		color.Cyan("Closing connection (%d messages sent)", stats.MessagesSent)
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// mustLoadConfig runs during package variable initialization so every init
// below can read defaults from cfg.
func mustLoadConfig() *config.Config {
	loaded, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	return loaded
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&host, "host", cfg.ClientHost, "server host")
	rootCmd.PersistentFlags().IntVar(&port, "port", cfg.ClientPort, "server port")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", cfg.LogFormat, "log format (console, text, json)")
	rootCmd.Flags().StringVar(&inputPath, "device", cfg.InputDevice, "keyboard device path, auto-detected when empty")
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, level, logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func serverAddr() string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
