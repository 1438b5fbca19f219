package main

import (
	"log"

	"github.com/ankitjain91/pmfit-analyzer/cmd/pmfitctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
