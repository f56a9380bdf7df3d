package main

import "faultline/cmd"

func main() {
	cmd.Execute()
}
