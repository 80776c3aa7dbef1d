/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/aerobonkers/cmd/aerobonkers/cmd"
	"github.com/ssargent/aerobonkers/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer(nil)

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
