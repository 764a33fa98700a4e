package main

import "github.com/oshokin/proximity-alarm/cmd/alarm-feeder/cmd"

func main() {
	cmd.Execute()
}
