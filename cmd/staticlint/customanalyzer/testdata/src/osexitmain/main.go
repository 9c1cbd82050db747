package main

import (
	"fmt"
	"os"
)

func helper() {
	os.Exit(2)
}

func main() {
	fmt.Println("starting")
	if len(os.Args) > 3 {
		helper()
	}
	os.Exit(1) // want "direct call of os.Exit in main function"
}
