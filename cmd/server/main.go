package main // Entry point package

import "github.com/iliyamo/airplane-seat-reservation/cmd/server/command"

func main() {
	command.Execute()
}
