package main

import (
	"os"

	"github.com/mhagander/s3indexbuilder/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
