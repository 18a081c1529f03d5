package main

import "github.com/iksnae/tusty-chat/cmd"

func main() {
	cmd.Execute()
}
