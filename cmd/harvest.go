package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/shaibs3/mediavault/internal/harvest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type linkOperation func(ctx context.Context, e *harvest.Engine, ids []int64) (harvest.Result, error)

// harvestCommands returns the one-shot commands operating on stored links
func harvestCommands() []*cobra.Command {
	return []*cobra.Command{
		linkCommand("download <link-id>", "Download the media of a link", 1,
			func(ctx context.Context, e *harvest.Engine, ids []int64) (harvest.Result, error) {
				return e.DownloadFiles(ctx, ids[0])
			}),
		linkCommand("check <link-id>", "Reconcile the download counters of a link", 1,
			func(ctx context.Context, e *harvest.Engine, ids []int64) (harvest.Result, error) {
				return e.CheckDownloaded(ctx, ids[0])
			}),
		linkCommand("scan <link-id>", "Record untracked files found in the directory of a link", 1,
			func(ctx context.Context, e *harvest.Engine, ids []int64) (harvest.Result, error) {
				return e.ScanFilesForLink(ctx, ids[0])
			}),
		linkCommand("duplicate <link-id> <duplicate-id>", "Tag a link as a duplicate of another", 2,
			func(ctx context.Context, e *harvest.Engine, ids []int64) (harvest.Result, error) {
				return e.AddDuplicate(ctx, ids[0], ids[1])
			}),
	}
}

func linkCommand(use, short string, nargs int, op linkOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid link id %q", arg)
				}
				ids[i] = id
			}

			a, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() {
				_ = appLogger.Sync()
			}()
			ctx := cmd.Context()
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					appLogger.Warn("shutdown incomplete", zap.Error(err))
				}
			}()

			res, err := op(ctx, a.Engine(), ids)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%s", res.Message)
			}
			return nil
		},
	}
}
