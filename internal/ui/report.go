package ui

import (
	"fmt"
	"os"
)

// PrintSuccess prints a success message to stdout
func PrintSuccess(message string) {
	fmt.Println(levelStyles["success"].Render(message))
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, levelStyles["error"].Render("Error: "+message))
}
