package main

import "sitecms/cmd"

func main() {
	cmd.Execute()
}
