package main

import "github.com/Candra0x6/Inventy-sub003/cmd"

func main() {
	cmd.Execute()
}
