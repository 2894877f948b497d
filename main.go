package main

import "github.com/user/mssp-agent/cmd"

func main() {
	cmd.Execute()
}
