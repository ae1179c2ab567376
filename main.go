package main

import "lostfilm/cmd"

func main() {
	cmd.Execute()
}
