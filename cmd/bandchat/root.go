package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bandchat/client"
	"bandchat/config"
	"bandchat/utils"
)

var version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bandchat",
	Short: "Terminal client for band chat rooms",
	Long: `bandchat reads and posts to the rooms of a bandchat server.
Run "bandchat chat" for the interactive view.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (default ./bandchat.toml or $HOME/.bandchat.toml)")
	rootCmd.PersistentFlags().String("server", "", "server base URL (overrides client.base_url)")
	rootCmd.PersistentFlags().Int64P("room", "r", 0, "room id (overrides client.room_id)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
}

// env is what every subcommand needs.
type env struct {
	cfg    *config.Config
	api    *client.Client
	log    zerolog.Logger
	closer func() error
}

func (e *env) Close() { _ = e.closer() }

// roomID is the room selected by flag or config.
func (e *env) roomID() int64 { return e.cfg.Client.RoomID }

// viewerID returns the configured viewer or the one carried by the token.
func (e *env) viewerID() (string, error) {
	if e.cfg.Client.ViewerID != "" {
		return e.cfg.Client.ViewerID, nil
	}
	id, err := utils.ViewerID(e.api.Token)
	if err != nil {
		return "", fmt.Errorf("no viewer id: log in first or set client.viewer_id (%w)", err)
	}
	return id, nil
}

// setup loads configuration and builds the API client. logOut receives log
// output when no log file is configured.
func setup(cmd *cobra.Command, logOut io.Writer) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		cfg.Client.BaseURL = s
	}
	if r, _ := cmd.Flags().GetInt64("room"); r > 0 {
		cfg.Client.RoomID = r
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Log.Level = "debug"
	}

	logger, closer, err := config.NewLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		api:    client.New(cfg.Client.BaseURL, cfg.Client.Token, cfg.Client.Timeout),
		log:    logger,
		closer: closer,
	}, nil
}

func stderrWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
}
