// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-translator/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect translation jobs",
	Long: `Jobs reads the job database given by --jobs-db (or jobs_db in the config
file). Without a database, jobs only live as long as one command.`,
}

// --- list subcommand ---

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	RunE:  runJobsList,
}

func runJobsList(cmd *cobra.Command, args []string) error {
	store, err := openJobsStore()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	list, err := store.List(context.Background(), jobs.Filter{
		BatchID: stringFlag(cmd, "batch"),
		Status:  jobs.Status(stringFlag(cmd, "status")),
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if list == nil {
			list = []jobs.Job{}
		}
		return encodeJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-9s  %-5s  %-19s  %s\n", "ID", "Status", "Pair", "Updated", "Input")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, j := range list {
		fmt.Fprintf(os.Stdout, "%-36s  %-9s  %-5s  %-19s  %s\n",
			j.ID, j.Status, j.SourceLang+"-"+j.TargetLang,
			j.UpdatedAt.Local().Format(time.DateTime), j.InputFile)
	}
	fmt.Fprintf(os.Stdout, "\n%d jobs\n", len(list))
	return nil
}

// --- show subcommand ---

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	store, err := openJobsStore()
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	return encodeJSON(job)
}

func openJobsStore() (jobs.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.JobsDB == "" {
		return nil, fmt.Errorf("no job database configured: pass --jobs-db")
	}
	return openJobs(cfg)
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	jobsListCmd.Flags().String("batch", "", "only jobs of this batch ID")
	jobsListCmd.Flags().String("status", "", "only jobs with this status: pending, running, succeeded, failed, skipped")
	jobsListCmd.Flags().Int("limit", 20, "maximum number of jobs (0 = all)")
	jobsListCmd.Flags().Bool("json", false, "output results as JSON")

	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd)
	rootCmd.AddCommand(jobsCmd)
}
