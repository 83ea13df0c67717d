package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gambit/internal/logging"
	"gambit/internal/mcp"
	"gambit/internal/store"
)

var (
	serveDB        string
	serveNoPersist bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve planning agents over MCP on stdio",
	Long: `Serve runs the Model Context Protocol server on stdin/stdout so LLM
tooling can create agents, push world updates, and report action outcomes.
Agent histories persist to a local SQLite database unless --no-persist.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDB, "db", store.DefaultDBPath, "SQLite database for agent histories")
	serveCmd.Flags().BoolVar(&serveNoPersist, "no-persist", false, "run without history persistence")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st *store.SqlStore
	if !serveNoPersist {
		var err error
		if st, err = store.Open(serveDB); err != nil {
			return err
		}
		defer st.Close()
	}

	srv := mcp.NewServer(version, st)
	log := logging.New("serve")
	log.Info("mcp server starting", "version", version, "persist", !serveNoPersist)
	err := srv.Run(ctx)
	log.Info("mcp server stopped")
	return err
}
