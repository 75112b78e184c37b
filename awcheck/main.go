// Command awcheck checks recorded write channel activity against the bus
// protocol rules.
package main

import "github.com/sarchlab/awcheck/awcheck/cmd"

func main() {
	cmd.Execute()
}
