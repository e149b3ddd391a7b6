//go:build !linux || nogpu

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "gazeview: needs Linux and a GPU build")
	os.Exit(1)
}
