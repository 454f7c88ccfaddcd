package main

import "github.com/MeKo-Tech/vtrack/cmd/vtrack/cmd"

func main() {
	cmd.Execute()
}
