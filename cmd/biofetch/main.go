package main

import "github.com/vietddude/biofetch/internal/cli"

func main() {
	cli.Execute()
}
