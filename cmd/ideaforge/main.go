package main

import (
	"ideaforge/cmd/cmd"
	"ideaforge/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
