package main

import "github.com/markany/safepc-anomaly/cmd"

func main() {
	cmd.Execute()
}
