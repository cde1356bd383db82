package main

import "github.com/JDW-ehb/LINKSPHERE/cmd/linksphere/cmd"

func main() {
	cmd.Execute()
}
