package cli

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/microhabit/internal/logger"
	"github.com/julianstephens/microhabit/internal/storage"
)

type DebugCmd struct {
	Location DebugLocationCmd `cmd:"" help:"Show the backend and where it keeps its data."`
	Dump     DebugDumpCmd     `cmd:"" help:"Dump stored records as JSON."`
}

type DebugLocationCmd struct{}

func (cmd *DebugLocationCmd) Run(ctx *Context) error {
	output := map[string]string{
		"backend":  ctx.Config.Storage.Backend,
		"location": ctx.Store.Location(),
		"config":   ctx.Config.ConfigFile,
		"log":      logger.Path(),
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(ctx.Out, string(jsonBytes))
	return nil
}

type DebugDumpCmd struct {
	Keys []string `arg:"" optional:"" enum:"habits,completions,thoughts,reminders,lastResetDate" help:"Keys to dump (default: all)."`
}

func (cmd *DebugDumpCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	keys := cmd.Keys
	if len(keys) == 0 {
		keys = storage.AllKeys
	}
	snap, err := ctx.Store.Load(ctx.Ctx, keys...)
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	fields := map[string]interface{}{
		"habits":        snap.Habits,
		"completions":   snap.Completions,
		"thoughts":      snap.Thoughts,
		"reminders":     snap.Reminders,
		"lastResetDate": snap.LastResetDate,
	}
	output := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		output[k] = fields[k]
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	fmt.Fprintln(ctx.Out, string(jsonBytes))
	return nil
}
