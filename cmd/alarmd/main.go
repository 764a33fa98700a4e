package main

import "github.com/oshokin/proximity-alarm/cmd/alarmd/cmd"

func main() {
	cmd.Execute()
}
