package main

import "github.com/ogulcanaydogan/deadline-cloud-notifier/internal/cli"

func main() {
	cli.Execute()
}
