package main

import "github.com/Yates-Labs/talecraft/cmd"

func main() {
	cmd.Execute()
}
