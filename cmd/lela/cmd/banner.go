package cmd

import (
	"fmt"
)

const banner = `
  _      _____ _        _
 | |    | ____| |      / \
 | |    |  _| | |     / _ \
 | |___ | |___| |___ / ___ \
 |_____||_____|_____/_/   \_\

`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Stories, published - Version %s\x1b[0m\n\n", Version)
}
