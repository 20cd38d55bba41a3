package main

import "f1lapcompare/cmd"

func main() {
	cmd.Execute()
}
