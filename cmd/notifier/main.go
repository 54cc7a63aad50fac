package main

import (
	"os"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without a zoneinfo database

	"todo_alarm_notifier/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
