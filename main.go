package main

import "wedding/cmd"

func main() {
	cmd.Execute()
}
