// Package main provides the mentorship-admin CLI tool for administering the mentorship backend.
package main

import (
	"os"

	"github.com/mentorlink/go-mentorship-backend/cmd/mentorship-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
