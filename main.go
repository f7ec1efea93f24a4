package main

import "imgsweep/cmd"

func main() {
	cmd.Execute()
}
