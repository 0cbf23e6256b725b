package main

import "github.com/kozaktomas/biomatch/cmd"

func main() {
	cmd.Execute()
}
