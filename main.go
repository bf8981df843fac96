package main

import "github.com/vedsharma/adminkit/cmd"

func main() {
	cmd.Execute()
}
