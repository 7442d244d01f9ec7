package main

import "koshelf/komerge/cmd"

func main() {
	cmd.Execute()
}
