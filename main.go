package main

import "depbundle/internal/cli"

func main() {
	cli.Execute()
}
