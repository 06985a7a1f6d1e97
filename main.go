package main

import (
	"log"

	"github.com/kilianp07/resq112/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("resq112: %v", err)
	}
}
