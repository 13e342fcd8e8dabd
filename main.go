package main

import "github.com/peyoba/Text2Image-audio/cmd"

func main() {
	cmd.Execute()
}
