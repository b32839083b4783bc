/*
Package main is the entry point of the chatterbox chat client.

It loads the configuration from environment variables, applies command line
overrides, initializes the global logger and runs either the interactive chat
or one of the file store subcommands.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatterbox/internal/configs"
	"chatterbox/internal/pkg/logx"
)

var rootCmd = &cobra.Command{
	Use:               "chatterbox",
	Short:             "Terminal client for a real-time chat server",
	Long:              "Connects to the chat server, keeps the connection alive and reconnects every few seconds when it drops.\nType a line to send it; /help lists the commands.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runChat,
}

var (
	flagServerURL   string
	flagToken       string
	flagDataDir     string
	flagDownloadDir string
	flagEnvironment string
	flagLogLevel    string
	flagNoNotify    bool
	flagNoColor     bool
	flagViewPort    int
)

// cfg is the configuration shared by all commands, set by setup.
var cfg *configs.AppConfig

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "server", "", "chat server base URL (env CHAT_SERVER_URL)")
	flags.StringVar(&flagToken, "token", "", "bearer token presented to the server (env CHAT_TOKEN)")
	flags.StringVar(&flagDataDir, "data-dir", "", "directory of the identity store (env CHAT_DATA_DIR)")
	flags.StringVar(&flagDownloadDir, "download-dir", "", "directory downloads are written to (env CHAT_DOWNLOAD_DIR)")
	flags.StringVar(&flagEnvironment, "env", "", "development or production (env ENVIRONMENT)")
	flags.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error; logs go to stderr")
	flags.BoolVar(&flagNoColor, "no-color", false, "disable colored output (env NO_COLOR)")

	rootCmd.Flags().BoolVar(&flagNoNotify, "no-notify", false, "disable desktop notifications (env CHAT_NOTIFICATIONS=false)")
	rootCmd.Flags().IntVar(&flagViewPort, "view-port", 0, "serve the local transcript viewer on this port (env VIEW_PORT)")

	rootCmd.AddCommand(filesCmd, uploadCmd, downloadCmd, whoamiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, applies the flags that were set and initializes logging.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	applyFlags(cmd, loaded)

	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	logx.InitGlobalLogger(cfg.IsDevelopment(), os.Stderr)

	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" && !cfg.IsDevelopment() {
		// keep the terminal for the conversation
		level = "warn"
	}
	if level != "" {
		if err := logx.SetLevel(level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	logx.Logger().Debug().
		Str("environment", cfg.Environment).
		Str("server_url", cfg.ServerURL).
		Dur("reconnect_interval", cfg.ReconnectInterval).
		Dur("ping_interval", cfg.PingInterval).
		Bool("notifications", cfg.Notifications).
		Int("view_port", cfg.ViewPort).
		Msg("Configuration loaded successfully")

	return nil
}

func applyFlags(cmd *cobra.Command, c *configs.AppConfig) {
	flags := cmd.Flags()

	if flags.Changed("server") {
		c.ServerURL = flagServerURL
	}
	if flags.Changed("token") {
		c.AuthToken = flagToken
	}
	if flags.Changed("data-dir") {
		c.DataDir = flagDataDir
	}
	if flags.Changed("download-dir") {
		c.DownloadDir = flagDownloadDir
	}
	if flags.Changed("env") {
		c.Environment = flagEnvironment
	}
	if flags.Changed("no-color") {
		c.NoColor = flagNoColor
	}
	if flags.Lookup("no-notify") != nil && flags.Changed("no-notify") {
		c.Notifications = !flagNoNotify
	}
	if flags.Lookup("view-port") != nil && flags.Changed("view-port") {
		c.ViewPort = flagViewPort
	}
}
