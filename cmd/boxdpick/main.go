package main

import (
	"log"

	"github.com/MrSnakeDoc/boxdpick/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ boxdpick failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ boxdpick stopped with error: %v", err)
	}
}
