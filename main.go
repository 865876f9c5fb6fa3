package main

import "github.com/dawita19/earnmax-sub001/cmd"

func main() {
	cmd.Execute()
}
