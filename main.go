package main

import "github.com/theirongolddev/finphase/cmd"

func main() {
	cmd.Execute()
}
