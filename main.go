package main

import "github.com/notargets/gomeshless/cmd"

func main() {
	cmd.Execute()
}
