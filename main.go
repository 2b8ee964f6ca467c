package main

import "github.com/iksnae/devwatch/cmd"

func main() {
	cmd.Execute()
}
