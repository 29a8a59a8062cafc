package main

import (
	"github.com/pshvedko/pianola/cmd"
)

func main() {
	cmd.Execute()
}
