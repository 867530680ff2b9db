package main

import "github.com/lima-zulu/github-org-analyser/cmd"

func main() {
	cmd.Execute()
}
