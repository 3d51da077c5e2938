package main

import "unishop/cmd"

func main() {
	cmd.Execute()
}
