package main

import "github.com/mcoot/rpgdash/internal/cli"

func main() {
	cli.Execute()
}
