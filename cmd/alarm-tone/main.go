package main

import "github.com/oshokin/proximity-alarm/cmd/alarm-tone/cmd"

func main() {
	cmd.Execute()
}
