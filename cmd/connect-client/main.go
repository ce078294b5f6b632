// cmd/connect-client/main.go
package main

import "github.com/tamzrod/connect-client/internal/cli"

func main() {
	cli.Execute()
}
