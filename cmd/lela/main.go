package main

import "github.com/jmcleod/lela/cmd/lela/cmd"

func main() {
	cmd.Execute()
}
