package main

import "github.com/danielsihyun/drink-the-beer-sub001/cmd"

func main() {
	cmd.Run()
}
