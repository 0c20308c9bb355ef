package main

import "github.com/wangkanai/foundation/cmd"

func main() {
	cmd.Execute()
}
