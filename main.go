package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/temirov/testgen/cmd/testgen"
)

func main() {
	logger := zap.Must(zap.NewProduction())

	defer func() { _ = logger.Sync() }()

	executionErr := testgen.Execute()
	if executionErr != nil {
		logger.Error("command execution failed", zap.Error(executionErr))
		_ = logger.Sync()
		os.Exit(1)
	}
}
