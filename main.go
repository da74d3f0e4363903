package main

import "github.com/KaramelBytes/sheetmark-cli/cmd"

func main() {
	cmd.Execute()
}
