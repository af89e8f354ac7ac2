package main

import "press-pass/cmd"

func main() {
	cmd.Execute()
}
