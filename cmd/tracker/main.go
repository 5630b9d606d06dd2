package main

import (
	"github.com/tasktracker-app/tasktracker/cmd/tracker/commands"
)

func main() {
	commands.Execute()
}
