// Command usradmin serves the user administration front end for the
// reqres.in user service.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/patric-chuzhbe/usradmin/internal/app"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

func printBuildInfo(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
}

func run() error {
	theApp, err := app.New()
	if err != nil {
		return err
	}
	defer theApp.Close()

	return theApp.Run()
}

func main() {
	printBuildInfo(os.Stdout)

	if err := run(); err != nil {
		log.Fatal(err)
	}
}
