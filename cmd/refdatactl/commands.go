package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refdata/internal/core"
	"github.com/JonMunkholm/refdata/internal/database"
)

type uploadOptions struct {
	dataType string
	noWait   bool
}

func newUploadCmd(a *app) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a sheet or, for custom_duty_rate, a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			resp, err := a.service.Upload(ctx, core.UploadRequest{
				DataType: core.DataType(opts.dataType),
				Filename: filepath.Base(path),
				Data:     data,
			})
			if perr := a.printJSON(resp); perr != nil {
				return perr
			}
			if err != nil {
				return errors.New(core.FormatUserError(err))
			}
			if opts.noWait {
				return nil
			}

			// The process owns the persistence task, so it waits for it.
			if _, err := a.service.Await(ctx, resp.JobID); err != nil {
				return fmt.Errorf("job %d: %w", resp.JobID, err)
			}
			job, err := a.service.GetJob(ctx, resp.JobID)
			if err != nil {
				return err
			}
			return a.printJSON(job)
		},
	}

	cmd.Flags().StringVarP(&opts.dataType, "type", "t", "", "Data type: country_vat_rate, hs6p or custom_duty_rate (required)")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Return after validation; the job is abandoned when the process exits")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newCancelCmd(a *app) *cobra.Command {
	var dataType string

	cmd := &cobra.Command{
		Use:   "cancel JOB_ID",
		Short: "Cancel a pending upload job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			n, err := a.service.Cancel(cmd.Context(), id, core.DataType(dataType))
			if err != nil {
				return err
			}
			return a.printJSON(map[string]int64{"rowCount": n})
		},
	}

	cmd.Flags().StringVarP(&dataType, "type", "t", string(core.DataTypeCustomDutyRate), "Data type of the job")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show an upload job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			job, err := a.service.GetJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printJSON(job)
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create any missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(cmd.Context(), a.pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func parseJobID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}
