package main

import "github.com/locationflex/lfbench/cmd"

func main() {
	cmd.Execute()
}
