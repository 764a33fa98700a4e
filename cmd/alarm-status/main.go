package main

import "github.com/oshokin/proximity-alarm/cmd/alarm-status/cmd"

func main() {
	cmd.Execute()
}
