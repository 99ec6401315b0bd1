package main

import "github.com/pfrederiksen/citycast-digest/internal/cli"

func main() {
	cli.Execute()
}
