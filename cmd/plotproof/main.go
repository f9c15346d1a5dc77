// CLI entry point for plotproof.
package main

import "github.com/verdantio/plotproof/internal/interfaces/cli"

func main() {
	cli.Execute()
}
