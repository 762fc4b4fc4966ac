package main

import "trumpwatch/internal/cli"

func main() {
	cli.Execute()
}
