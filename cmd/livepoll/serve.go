package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/livepoll/internal/config"
	"github.com/vovakirdan/livepoll/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the livepoll SSH server",
	Long: `Start an SSH server that hosts live polls.

Each SSH connection gets its own session: create a poll and share its code,
or join an existing poll and vote. Finished polls are archived to the
database.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.livepoll/host_key

Examples:
  livepoll serve                          # Listen on :23235 with auto-generated key
  livepoll serve --ssh :2222              # Listen on port 2222
  livepoll serve --host-key ./host_key    # Use specific host key
  livepoll serve --db ./livepoll.db       # Use specific database

Participants connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags and environment win over the config file.
	if flagSSHAddr != "" {
		cfg.SSH.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKeyPath = flagHostKey
	}
	if flagIdleTimeout > 0 {
		cfg.SSH.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if salt := os.Getenv("LIVEPOLL_TOKEN_SALT"); salt != "" {
		cfg.Storage.TokenSalt = salt
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting livepoll SSH server on %s\n", server.Addr())
	fmt.Println("Participants connect with: ssh <host> -p <port>")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
