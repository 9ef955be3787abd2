package main

import "github.com/nextlevelbuilder/chatsift/cmd"

func main() {
	cmd.Execute()
}
