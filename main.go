package main

import "github.com/llehouerou/tubeq/cmd"

func main() {
	cmd.Execute()
}
