package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"task-manager.com/task-manager/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the task list and form UI",
	Long:  "Starts the browser UI, which reads and writes tasks through the API at API_URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		e, err := web.NewServer(newClient(cfg))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, e, cfg.WebURL, cfg.ShutdownTimeoutSeconds, "web UI")
	},
}

func init() {
	rootCmd.AddCommand(webCmd)
}
