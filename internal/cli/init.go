package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

type InitCmd struct {
	WriteConfig bool `help:"Write the resolved settings to config.yaml in the config directory." default:"true" negatable:""`
}

func (c *InitCmd) Run(ctx *Context) error {
	if ctx.Config.Storage.Backend != "memory" && !ctx.Config.IsRemote() {
		if err := os.MkdirAll(filepath.Dir(ctx.Config.Storage.Path), 0700); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Ctx); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Initialized microhabit %s storage at: %s\n", ctx.Config.Storage.Backend, ctx.Store.Location())

	if c.WriteConfig && ctx.Config.ConfigFile == "" {
		path := filepath.Join(ctx.Config.ConfigDir, "config.yaml")
		if err := ctx.Config.WriteFile(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Wrote config: %s\n", path)
	}
	return nil
}
