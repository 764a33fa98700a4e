package main

import "github.com/oshokin/proximity-alarm/cmd/alarm-start/cmd"

func main() {
	cmd.Execute()
}
