package main

import (
	"fmt"
	"os"

	"aerocrew.com/aerocrew/security"
)

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("[ERROR] JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	identity := &security.AeroCrewIdentity{
		Id:       1,
		UserName: "sync-operator",
		Provider: "aerocrew",
		Email:    "operator@aerocrew.com",
	}

	token, err := security.CreateIdentityToken(identity, secret, 3600)
	if err != nil {
		fmt.Printf("[ERROR] creating token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
