package main

import "github.com/KaramelBytes/medflow-cli/cmd"

func main() {
	cmd.Execute()
}
