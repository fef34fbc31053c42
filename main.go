package main

import (
	"github.com/luma/lockdown/cmd"
)

func main() {
	cmd.Execute()
}
