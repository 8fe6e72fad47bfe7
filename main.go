package main

import "github.com/fakeyudi/oximon/cmd"

func main() {
	cmd.Execute()
}
