package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/team-sakkal/caoscan/internal/export"
	"github.com/team-sakkal/caoscan/internal/pipeline"
	"github.com/team-sakkal/caoscan/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload server",
	Long: `Serve starts the HTTP upload server:
- POST /api/process accepts multipart PDF uploads under "files" and
  responds with the summary spreadsheet
- GET /healthz reports liveness

The server drains outstanding requests on SIGINT/SIGTERM.

Example:
  caoscan serve
  caoscan serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured: set CAOSCAN_API_KEY or OPENROUTER_API_KEY")
	}

	logger := newLogger()
	p := pipeline.New(cfg, logger)
	renderer := export.NewRenderer(logger)

	api := server.NewWebAPI(cfg.Server, p, renderer, logger)
	return api.Start()
}
