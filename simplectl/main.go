// Simplectl is the command-line companion of the simple-controller library.
package main

import "github.com/davidchow24/simple-controller/simplectl/cmd"

func main() {
	cmd.Execute()
}
