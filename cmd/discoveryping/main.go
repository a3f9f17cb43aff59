package main

import (
	"context"
	"os"

	"github.com/kbukum/discoveryping/logger"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
}
