package main

import "github.com/tanq16/rccget/cmd"

func main() {
	cmd.Execute()
}
