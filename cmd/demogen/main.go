package main

import (
	"demogen/cmd/demogen/cmd"
)

func main() {
	cmd.Execute()
}
