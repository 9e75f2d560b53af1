package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/locvowork/hiring_analytics/internal/bootstrap"
	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/logger"
	"github.com/locvowork/hiring_analytics/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type loadOptions struct {
	departments string
	jobs        string
	employees   string
}

func newRootCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:          "loader",
		Short:        "Load departments, jobs and hired employees CSV files into the database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.departments == "" && opts.jobs == "" && opts.employees == "" {
				return fmt.Errorf("at least one of --departments, --jobs or --employees is required")
			}
			svc, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.DB.Close()
			defer metrics.Flush()
			return runLoad(cmd.Context(), svc, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.departments, "departments", "", "departments CSV file")
	cmd.Flags().StringVar(&opts.jobs, "jobs", "", "jobs CSV file")
	cmd.Flags().StringVar(&opts.employees, "employees", "", "hired employees CSV file")

	cmd.AddCommand(newReportCmd())
	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the hiring reports as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.DB.Close()
			return runReport(cmd.Context(), svc, cmd.OutOrStdout())
		},
	}
}

func setup(ctx context.Context) (*bootstrap.Services, error) {
	svc, _, err := bootstrap.Setup(ctx)
	if err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application", err)
		return nil, err
	}
	return svc, nil
}

type loadResult struct {
	Dataset domain.Dataset      `json:"dataset"`
	Result  domain.UploadResult `json:"result"`
}

// runLoad loads departments and jobs concurrently, then employees, which reference both.
func runLoad(ctx context.Context, svc *bootstrap.Services, opts loadOptions, out io.Writer) error {
	results := make([]loadResult, 0, 3)
	var parents [2]*loadResult

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range []struct {
		ds   domain.Dataset
		path string
	}{
		{domain.DatasetDepartments, opts.departments},
		{domain.DatasetJobs, opts.jobs},
	} {
		i, f := i, f
		if f.path == "" {
			continue
		}
		g.Go(func() error {
			res, err := loadFile(gctx, svc, f.ds, f.path)
			if err != nil {
				return err
			}
			parents[i] = &loadResult{Dataset: f.ds, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range parents {
		if r != nil {
			results = append(results, *r)
		}
	}

	if opts.employees != "" {
		res, err := loadFile(ctx, svc, domain.DatasetEmployees, opts.employees)
		if err != nil {
			return err
		}
		results = append(results, loadResult{Dataset: domain.DatasetEmployees, Result: res})
	}
	return writeJSON(out, results)
}

func loadFile(ctx context.Context, svc *bootstrap.Services, ds domain.Dataset, path string) (domain.UploadResult, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("read %s: %w", ds, err)
	}
	res, err := svc.Ingest.Upload(ctx, ds, payload)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("load %s from %s: %w", ds, path, err)
	}
	return res, nil
}

func runReport(ctx context.Context, svc *bootstrap.Services, out io.Writer) error {
	quarterly, err := svc.Hiring.HiringByQuarter(ctx)
	if err != nil {
		return err
	}
	above, err := svc.Hiring.DepartmentsAboveAverage(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]interface{}{
		"hiring_by_quarter":         quarterly,
		"departments_above_average": above,
	})
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
