package main

import (
	"fmt"

	"github.com/fwojciec/profdir/gin"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := gin.NewServer(deps.Pipeline, deps.Logger)

	fmt.Fprintf(deps.Stdout, "Listening on %s\n", c.Addr)
	if err := server.Run(c.Addr); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
