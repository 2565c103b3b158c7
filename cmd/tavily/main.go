package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/kitbuilder587/tavily-go/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cli.Execute()
}
