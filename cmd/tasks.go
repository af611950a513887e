package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	config "task-manager.com/task-manager/internal/configs"
	"task-manager.com/task-manager/pkg/client"
)

func init() {
	rootCmd.AddCommand(newTasksCmd())
}

func newClient(cfg config.Config) *client.Client {
	timeout := time.Duration(cfg.ClientTimeoutSeconds) * time.Second
	return client.New(cfg.APIURL, client.NewQueryCache(), client.WithTimeout(timeout))
}

func newTasksCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks through the API",
		Long: `List, show, create, update and delete tasks through the API at API_URL.

Examples:
  task-manager tasks list
  task-manager tasks get 3 --output yaml
  task-manager tasks create --title "Fix login bug" --priority high --type Bug --duedate 2025-06-01
  task-manager tasks update 3 --title "Fix login bug on iOS" --file screenshot.png
  task-manager tasks delete 3`,
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromConfig()
			if err != nil {
				return err
			}
			tasks, err := c.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), output, tasks)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			c, err := clientFromConfig()
			if err != nil {
				return err
			}
			task, err := c.FetchByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), output, task)
		},
	})

	cmd.AddCommand(saveTaskCmd("create", "Create a task", cobra.NoArgs, &output))
	cmd.AddCommand(saveTaskCmd("update [id]", "Update the supplied fields of a task", cobra.ExactArgs(1), &output))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task and its attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			c, err := clientFromConfig()
			if err != nil {
				return err
			}
			if err := c.DeleteByID(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted\n", id)
			return nil
		},
	})

	return cmd
}

// saveTaskCmd builds create and update. Only flags given on the command
// line are sent.
func saveTaskCmd(use, short string, args cobra.PositionalArgs, output *string) *cobra.Command {
	var (
		values = map[string]*string{}
		file   string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if len(args) == 1 {
				parsed, err := parseTaskID(args[0])
				if err != nil {
					return err
				}
				id = parsed
			}

			pick := func(name string) *string {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				return values[name]
			}
			fields := client.TaskFields{
				Title:       pick("title"),
				Description: pick("description"),
				Priority:    pick("priority"),
				Type:        pick("type"),
				DueDate:     pick("duedate"),
				Entity:      pick("entity"),
				Staff:       pick("staff"),
			}

			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open attachment: %w", err)
				}
				defer f.Close()
				fields.File = &client.File{Name: filepath.Base(file), Content: f}
			}

			c, err := clientFromConfig()
			if err != nil {
				return err
			}
			task, err := c.CreateOrUpdate(cmd.Context(), fields, id)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), *output, task)
		},
	}

	for _, flag := range []struct{ name, usage string }{
		{"title", "task title"},
		{"description", "task description"},
		{"priority", "low, medium or high"},
		{"type", "task type, e.g. Bug, Feature, Improvement"},
		{"duedate", "due date (YYYY-MM-DD)"},
		{"entity", "organization or entity"},
		{"staff", "assigned staff member"},
	} {
		values[flag.name] = cmd.Flags().String(flag.name, "", flag.usage)
	}
	cmd.Flags().StringVar(&file, "file", "", "path of an image to attach")

	return cmd
}

func clientFromConfig() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newClient(cfg), nil
}

func parseTaskID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return uint(id), nil
}

func printOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output %q (want json or yaml)", format)
}
