package main

import "github.com/aussiebroadwan/vonage/internal/cli"

func main() {
	cli.Execute()
}
