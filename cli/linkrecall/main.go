package main

import (
	"os"

	linkrecallcmder "github.com/Rahi-padwal/linkRecall/cmd/linkrecall"
)

func main() {
	cmd := linkrecallcmder.NewLinkRecallCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
