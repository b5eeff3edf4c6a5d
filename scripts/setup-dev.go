package main

import (
	"fmt"
	"os"
	"os/exec"
)

func main() {
	fmt.Println("🚀 Setting up Coffee POS Development Environment")

	// Check Docker
	if err := checkDocker(); err != nil {
		fmt.Printf("⚠️  Docker issue detected: %v\n", err)
		fmt.Println("💡 You can still run with KAFKA_MOCK_MODE=true against a local MySQL")
		return
	}

	fmt.Println("✅ Docker is running")
	fmt.Println("🐳 Starting MySQL, Redis and Kafka...")

	cmd := exec.Command("docker-compose", "up", "-d", "mysql", "redis", "kafka")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Printf("❌ Failed to start services: %v\n", err)
		return
	}

	fmt.Println("✅ Services started successfully!")
	fmt.Println("🎯 Run: go run .")
}

func checkDocker() error {
	cmd := exec.Command("docker", "info")
	return cmd.Run()
}
