package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	bindAddr   string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envBind := os.Getenv("TRIVIA_BIND")
	if envBind == "" {
		envBind = "127.0.0.1:9876"
	}
	envConfig := os.Getenv("TRIVIA_CONFIG")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "udp-trivia-service",
		Short: "Real-time multiplayer trivia over UDP",
	}

	cmd.PersistentFlags().StringVar(&bindAddr, "bind", envBind, "UDP address to bind")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewServeCmd(&configPath, &bindAddr))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
