// Command gitdl downloads hosted git projects as normalized zip archives.
package main

import "github.com/Fuabioo/gitdl/internal/cli"

func main() {
	cli.Execute()
}
