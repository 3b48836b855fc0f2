// Package main provides the thrash command.
package main

import "github.com/sarchlab/thrash/thrash/cmd"

func main() {
	cmd.Execute()
}
