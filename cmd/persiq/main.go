package main

import "github.com/nfrund/persiq/cmd/persiq/cmd"

func main() {
	cmd.Execute()
}
