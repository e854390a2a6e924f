// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Command mddcheck checks the safety property of a transition system given as
// a YAML model. It exits with status 0 when the system is safe, 1 when it is
// unsafe, and 2 on errors.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
