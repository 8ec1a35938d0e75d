package main

import "vcontroller/cmd/vc-client/command"

func main() {
	command.Execute()
}
