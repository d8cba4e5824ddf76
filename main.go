package main

import "github.com/beagleboard/beaglemind/cmd"

func main() {
	cmd.Execute()
}
