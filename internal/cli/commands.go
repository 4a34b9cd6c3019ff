package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> <description>",
		Short: "Add a new task",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.taskService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Create(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Task added successfully!")
			printTask(a.stdout, task)
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	var (
		status string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter model.Status
			if cmd.Flags().Changed("status") {
				s, err := model.ParseStatus(status)
				if err != nil {
					return usage(err)
				}
				filter = s
			}

			svc, err := a.taskService(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if filter != "" {
				tasks = model.FilterByStatus(tasks, filter)
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			printList(a.stdout, tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "show only tasks with this status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as a JSON array")
	return cmd
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task by ID",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.taskService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(a.stdout, task)
			fmt.Fprintf(a.stdout, "Created: %s\n", task.CreatedAt.Local().Format(timeLayout))
			fmt.Fprintf(a.stdout, "Updated: %s\n", task.UpdatedAt.Local().Format(timeLayout))
			return nil
		},
	}
}

func (a *app) updateCommand() *cobra.Command {
	var title, description, status string
	cmd := &cobra.Command{
		Use:   "update <id> [title] [description] [status]",
		Short: "Update a task",
		Long: `Update a task. Positional values left empty ("") are not changed.
Flags take precedence over positional values.`,
		Args: positional(cobra.RangeArgs(1, 4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TaskPatch
			fields := []**string{&patch.Title, &patch.Description, &patch.Status}
			for i, v := range args[1:] {
				if v != "" {
					*fields[i] = &v
				}
			}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}

			svc, err := a.taskService(cmd.Context())
			if err != nil {
				return err
			}
			task, err := svc.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Task updated successfully!")
			printTask(a.stdout, task)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status: Pending, In Progress or Completed")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task by ID",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.taskService(cmd.Context())
			if err != nil {
				return err
			}
			// заголовок нужен только для вывода
			task, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), task.ID); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Task deleted successfully!")
			fmt.Fprintf(a.stdout, "Title: %s\n", task.Title)
			return nil
		},
	}
}

func printTask(w io.Writer, t model.Task) {
	fmt.Fprintf(w, "ID: %s\n", t.ID)
	fmt.Fprintf(w, "Title: %s\n", t.Title)
	fmt.Fprintf(w, "Description: %s\n", t.Description)
	fmt.Fprintf(w, "Status: %s\n", t.Status)
}

func printList(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}

	fmt.Fprintf(w, "Found %d tasks:\n\n", len(tasks))
	for i, t := range tasks {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, t.Status, t.Title)
		fmt.Fprintf(w, "   ID: %s\n", t.ID)
		fmt.Fprintf(w, "   Description: %s\n", t.Description)
		fmt.Fprintf(w, "   Created: %s\n", t.CreatedAt.Local().Format(timeLayout))
		fmt.Fprintln(w)
	}
}
