package main

import "github.com/kozaktomas/reclaim/cmd"

func main() {
	cmd.Execute()
}
