package main

import "github.com/jrsteele09/go-hms-client/cmd/hmsctl/cmd"

func main() {
	cmd.Execute()
}
