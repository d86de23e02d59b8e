package main

import "github.com/naelmusleh/modernmt/cmd"

func main() {
	cmd.Execute()
}
