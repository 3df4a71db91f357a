package main

import "martianoff/lscheme/cmd/lscheme/commands"

func main() {
	commands.Execute()
}
