package main

import (
	"github.com/dnsboard/dnsboard/cmd"
)

func main() {
	cmd.Execute()
}
