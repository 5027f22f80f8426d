package main

import "ultimate-tictactoe/internal/cli"

func main() {
	cli.Execute()
}
