package main

import (
	"os"

	"github.com/legaldesk/legaldesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
