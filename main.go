package main

import "github.com/darmiel/keygate/cmd"

func main() {
	cmd.Execute()
}
