package main

import "github.com/mohammad-safakhou/advisor/cmd"

func main() {
	cmd.Execute()
}
