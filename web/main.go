package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"aerocrew.com/aerocrew/core"
	"aerocrew.com/aerocrew/web/handlers"
	"aerocrew.com/aerocrew/web/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("[INFO] no .env file found, using process environment")
	}

	dsn := os.Getenv("DSN")
	if dsn == "" {
		fmt.Println("[ERROR] DSN environment variable is required")
		os.Exit(1)
	}

	jwtSecret, err := base64.StdEncoding.DecodeString(os.Getenv("JWT_SECRET"))
	if err != nil {
		fmt.Printf("[ERROR] JWT_SECRET must be base64 encoded: %v\n", err)
		os.Exit(1)
	}

	dm, err := core.New(dsn, 10)
	if err != nil {
		fmt.Printf("[ERROR] connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer dm.Close()

	ep := handlers.NewEndpoint(dm,
		os.Getenv("BIOTIME_URL"),
		os.Getenv("BIOTIME_TOKEN"),
		os.Getenv("BIOTIME_TIMEZONE"),
		os.Getenv("REPORT_BUCKET"))

	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/attendance/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		ep.Register(protected)
	}

	r.Run(":8090")
}
