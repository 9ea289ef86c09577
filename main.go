package main

import "github.com/RosShpakovskiy/bc2-as3/cli"

func main() {
	cli.Execute()
}
