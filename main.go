package main

import "github.com/meysamhadeli/codebro/cmd"

func main() {
	cmd.Execute()
}
