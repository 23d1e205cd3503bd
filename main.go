package main

import "nathanbeddoewebdev/provctl/cmd"

func main() {
	cmd.Execute()
}
