// Command farm2go-admin is the terminal admin console for Farm2Go. Each
// console process shares one session store, so logging out in one terminal
// signs every other terminal out.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
