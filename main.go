package main

import "productivity-agent/cmd"

func main() {
	cmd.Execute()
}
