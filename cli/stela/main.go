// Package main implements the stela binary.
//
//	go run main.go token create --name "Test Token" --symbol TST
//	go run main.go invoke --id <hex> --fn add --arg 1 --arg 2
//	go run main.go invoke --id <hex> --fn add --arg 1 --arg 2 \
//	  --rpc-url http://localhost:8080/api/v1/jsonrpc \
//	  --network-passphrase "Local Sandbox Network ; September 2022"
package main

import (
	"fmt"
	"os"

	"go.dedis.ch/stela/cli"
)

func main() {
	err := cli.New().Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
