package main

import "os"

func main() {
	defer func() {
		os.Exit(0)
	}()
	exit := os.Exit
	exit(1)
}
