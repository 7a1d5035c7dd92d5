package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/nandaardn/eventix/internal/server"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using OS environment.")
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
