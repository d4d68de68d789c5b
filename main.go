package main

import "performer-tag-sync/cmd"

func main() {
	cmd.Execute()
}
