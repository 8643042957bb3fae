package main

import "github.com/mwantia/grove/cli"

func main() {
	cli.Execute()
}
