package main

import "github.com/sarchlab/shiba/shiba/cmd"

func main() {
	cmd.Execute()
}
