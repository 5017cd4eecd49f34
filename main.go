/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/tgdash/dashclient/cmd"

func main() {
	cmd.Execute()
}
