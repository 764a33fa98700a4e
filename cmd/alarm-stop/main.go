package main

import "github.com/oshokin/proximity-alarm/cmd/alarm-stop/cmd"

func main() {
	cmd.Execute()
}
