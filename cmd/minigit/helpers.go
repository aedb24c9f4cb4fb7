package main

import (
	"os"

	minigit "github.com/goabstract/minigit"
)

// loadRepository opens the repository of the current working directory
func loadRepository() (*minigit.Repository, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return minigit.OpenRepository(pwd)
}

// envOr returns the value of an environment variable, or fallback if
// it's not set
func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
