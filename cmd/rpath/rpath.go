package main

import (
	"context"
	"os"

	"github.com/jlrickert/renderpath/pkg/cli"
)

func main() {
	ctx := context.Background()

	code, _ := cli.Run(ctx, os.Args[1:], cli.OSStreams())
	os.Exit(code)
}
