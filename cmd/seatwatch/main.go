package main

import "github.com/pfrederiksen/seatwatch/internal/cli"

func main() {
	cli.Execute()
}
