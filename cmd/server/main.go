package main

import "github.com/cvisual/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
