package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tasktracker-app/tasktracker/pkg/todos"
)

// NewTodoCommand creates the todo command group
func NewTodoCommand() *cobra.Command {
	todoCmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage the todo list",
	}

	todoCmd.AddCommand(&cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo item",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTodoAdd,
	})
	todoCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List todo items, newest first",
		RunE:  runTodoList,
	})
	todoCmd.AddCommand(&cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo item's completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runTodoDone,
	})
	todoCmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo item",
		Args:  cobra.ExactArgs(1),
		RunE:  runTodoDelete,
	})

	return todoCmd
}

func todoContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Engine.Close()

	ctx, cancel := todoContext()
	defer cancel()

	created, err := rt.API.CreateTodoItem(ctx, &todos.TodoItem{Title: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	fmt.Printf("Added %s  %s\n", shortID(created.ID), created.Title)
	return nil
}

func runTodoList(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Engine.Close()

	ctx, cancel := todoContext()
	defer cancel()

	items, err := rt.API.ListTodoItems(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("Nothing to do")
		return nil
	}

	for _, item := range items {
		marker := "[ ]"
		if item.IsCompleted {
			marker = "[x]"
		}
		fmt.Printf("%s %s  %s\n", marker, shortID(item.ID), item.Title)
	}
	return nil
}

func runTodoDone(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Engine.Close()

	ctx, cancel := todoContext()
	defer cancel()

	item, err := findTodo(ctx, rt, args[0])
	if err != nil {
		return err
	}

	item.IsCompleted = !item.IsCompleted
	if err := rt.API.UpdateTodoItem(ctx, item.ID, item); err != nil {
		return err
	}

	if item.IsCompleted {
		fmt.Printf("Done: %s\n", item.Title)
	} else {
		fmt.Printf("Reopened: %s\n", item.Title)
	}
	return nil
}

func runTodoDelete(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Engine.Close()

	ctx, cancel := todoContext()
	defer cancel()

	item, err := findTodo(ctx, rt, args[0])
	if err != nil {
		return err
	}

	if err := rt.API.DeleteTodoItem(ctx, item.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted: %s\n", item.Title)
	return nil
}

// findTodo resolves a full or shortened item id
func findTodo(ctx context.Context, rt *runtime, id string) (*todos.TodoItem, error) {
	items, err := rt.API.ListTodoItems(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ID == id || strings.HasPrefix(items[i].ID, id) {
			return &items[i], nil
		}
	}

	return nil, fmt.Errorf("no todo item matches %q", id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
