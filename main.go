package main

import "github.com/KaramelBytes/churnguard-cli/cmd"

func main() {
	cmd.Execute()
}
