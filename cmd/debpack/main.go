package main

import "github.com/roextract/debpack/cmd/debpack/cmd"

func main() {
	cmd.Execute()
}
