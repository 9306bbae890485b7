package main

import "solsnap/cmd"

func main() {
	cmd.Execute()
}
