package main

import "github.com/ethanolivertroy/threat-modeler/cmd"

func main() {
	cmd.Execute()
}
