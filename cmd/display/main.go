package main

import (
	"log"

	"github.com/relabs-tech/orientation_panel/internal/app"
	"github.com/relabs-tech/orientation_panel/internal/config"
)

func main() {
	log.Println("starting orientation panel OLED display")

	if err := config.InitGlobal("panel_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
