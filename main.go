package main

import "github.com/tristanduncombe/DECO3500/cmd"

func main() {
	cmd.Execute()
}
