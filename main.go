package main

import "github.com/chippy-emu/chippy/cmd"

func main() {
	cmd.Execute()
}
