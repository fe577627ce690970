package main

import (
	"fmt"
	"os"

	"github.com/Emarwalker/project-back-deploy100/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
