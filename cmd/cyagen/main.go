package main

import "github.com/mvp-joe/cyagen/internal/cli"

func main() {
	cli.Execute()
}
