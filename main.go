package main

import "github.com/vtcodehq/vtcode/cmd"

func main() {
	cmd.Execute()
}
