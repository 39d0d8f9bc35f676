package main

import "datasync/cmd"

func main() {
	cmd.Execute()
}
