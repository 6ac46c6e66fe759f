package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/heyfey/gpujob/pkg/common/types"
	"github.com/heyfey/gpujob/pkg/jobmaster"
	"github.com/urfave/cli/v2"
	yaml2 "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/apimachinery/pkg/util/wait"
)

const jobNamePrefix = "ml-job-"

func client(c *cli.Context) *Client {
	return NewClient(c.String("server"))
}

func CreateJob(c *cli.Context) error {
	d := jobmaster.JobDescriptor{}
	if file := c.String("filename"); file != "" {
		var err error
		if d, err = readJobFile(file); err != nil {
			return err
		}
	}
	// flags win over the file
	if c.IsSet("name") {
		d.Name = c.String("name")
	}
	if c.IsSet("image") {
		d.Image = c.String("image")
	}
	if c.IsSet("command") {
		d.Command = c.StringSlice("command")
	}
	if c.IsSet("args") {
		d.Args = c.StringSlice("args")
	}
	if d.Name == "" {
		d.Name = jobNamePrefix + uuid.New().String()
	}
	if d.Image == "" {
		return errors.New("Must specify image")
	}

	resp, err := client(c).CreateJob(d)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Job created: %s\nView your logs by:\n    kubectl logs -n %s job/%s\n",
		resp.Name, resp.Namespace, resp.Name)
	return nil
}

// readJobFile reads a JSON or YAML job descriptor.
func readJobFile(file string) (jobmaster.JobDescriptor, error) {
	d := jobmaster.JobDescriptor{}
	data, err := os.ReadFile(file)
	if err != nil {
		return d, err
	}
	if data, err = yaml2.ToJSON(data); err != nil {
		return d, fmt.Errorf("%s: %w", file, err)
	}
	if err = json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("%s: %w", file, err)
	}
	return d, nil
}

func GetJobStatus(c *cli.Context) error {
	job := c.Args().Get(0)
	if job == "" {
		return errors.New("Must specify job name")
	}
	s, err := client(c).GetJobStatus(job)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, s)
	return nil
}

// WaitJob polls the status of a job until it completes or fails. A failed job
// is reported as an error.
func WaitJob(c *cli.Context) error {
	job := c.Args().Get(0)
	if job == "" {
		return errors.New("Must specify job name")
	}
	cl := client(c)

	var last types.JobStatusType
	err := wait.PollUntilContextTimeout(c.Context, c.Duration("interval"), c.Duration("timeout"), true,
		func(ctx context.Context) (bool, error) {
			s, err := cl.GetJobStatus(job)
			if err != nil {
				return false, err
			}
			if s != last {
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", time.Now().Format(time.RFC3339), s)
				last = s
			}
			return s == types.JobCompleted || s == types.JobFailed, nil
		})
	if err != nil {
		return fmt.Errorf("waiting for job %s: %w", job, err)
	}
	if last == types.JobFailed {
		return fmt.Errorf("job %s failed", job)
	}
	return nil
}

func GetJobPods(c *cli.Context) error {
	job := c.Args().Get(0)
	if job == "" {
		return errors.New("Must specify job name")
	}
	pods, err := client(c).GetJobPods(job)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "POD\tPHASE\tCONDITIONS\tCONTAINERS\tCREATED")
	for _, p := range pods {
		conditions := ""
		for _, cond := range p.Conditions {
			conditions += fmt.Sprintf("%s=%s ", cond.Type, cond.Status)
		}
		containers := ""
		for _, cs := range p.Containers {
			containers += fmt.Sprintf("%s:%s ", cs.Name, cs.State)
			if cs.Reason != "" {
				containers += "(" + cs.Reason + ") "
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Phase, conditions, containers, p.Created.Format(time.RFC3339))
	}
	return w.Flush()
}

func DeleteJob(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errors.New("Must specify job name")
	}
	cl := client(c)
	failed := 0
	// allow delete multiple jobs at once
	for i := 0; i < c.Args().Len(); i++ {
		job := c.Args().Get(i)
		if err := cl.DeleteJob(job); err != nil {
			fmt.Fprintln(c.App.ErrWriter, err)
			failed++
			continue
		}
		fmt.Fprintf(c.App.Writer, "Job deleted: %s\n", job)
	}
	if failed > 0 {
		return fmt.Errorf("failed to delete %d job(s)", failed)
	}
	return nil
}

func GetJobs(c *cli.Context) error {
	jobs, err := client(c).ListJobs()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tCREATED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", j.Name, j.Status, j.Created.Format(time.RFC3339))
	}
	return w.Flush()
}

func GetEvents(c *cli.Context) error {
	events, err := client(c).ListEvents()
	if err != nil {
		return err
	}
	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tNAME\tREASON\tMESSAGE")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Time.Format(time.RFC3339), e.Name, e.Reason, e.Message)
	}
	return w.Flush()
}
