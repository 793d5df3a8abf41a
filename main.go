package main

import (
	"github.com/packwiz/launchwiz/cmd"

	// Modules of launchwiz
	_ "github.com/packwiz/launchwiz/settings"
	_ "github.com/packwiz/launchwiz/utils"
)

func main() {
	cmd.Execute()
}
