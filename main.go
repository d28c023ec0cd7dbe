package main

import (
	"log"

	"yashubustudio/sedefinder/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("sedefinder: %v", err)
	}
}
