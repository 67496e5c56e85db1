package main

import "github.com/vortexlabs/vortex-chat/cmd"

func main() {
	cmd.Execute()
}
