package main

import "github.com/LeJamon/goEscrow/internal/cli"

func main() {
	cli.Execute()
}
