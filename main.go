// Command dcmpress decompresses DICOM files to Explicit VR Little Endian.
package main

import (
	"os"

	"github.com/j-taylor87/dcmpress/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
