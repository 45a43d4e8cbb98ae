package main

import "github.com/xvierd/focusgate/cmd"

func main() {
	cmd.Execute()
}
