package main

import (
	"log"

	"github.com/thiagokokada/gitk-review/cmd"
)

func main() {
	log.SetFlags(0)
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitk-review: %v", err)
	}
}
