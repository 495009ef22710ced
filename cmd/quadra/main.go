package main

import "quadra/internal/cli"

func main() {
	cli.Execute()
}
