package cmd

import (
	"sort"
	"time"

	"github.com/heyfey/gpujob/config"
	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = config.Name
	app.Version = config.Version
	app.Usage = "GPU batch jobs on Kubernetes"
	app.Description = "Manage GPU jobs through the job service"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "`URL` of the job service",
			Value:   DefaultServer,
			EnvVars: []string{"GPUJOB_SERVER"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:      "create",
			Usage:     "Create a new GPU job from flags or a YAML/JSON file",
			ArgsUsage: " ",
			Action:    CreateJob,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "filename",
					Aliases: []string{"f"},
					Usage:   "`FILENAME` of the job descriptor",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "job `NAME`, generated when omitted",
				},
				&cli.StringFlag{
					Name:  "image",
					Usage: "container `IMAGE`",
				},
				&cli.StringSliceFlag{
					Name:  "command",
					Usage: "container entrypoint, repeat for each element",
				},
				&cli.StringSliceFlag{
					Name:  "args",
					Usage: "container arguments, repeat for each element",
				},
			},
		},
		{
			Name:      "status",
			Usage:     "Print the status of a job",
			ArgsUsage: "JOB",
			Action:    GetJobStatus,
		},
		{
			Name:      "wait",
			Usage:     "Wait until a job completes or fails",
			ArgsUsage: "JOB",
			Action:    WaitJob,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "interval",
					Usage: "polling interval",
					Value: 5 * time.Second,
				},
				&cli.DurationFlag{
					Name:  "timeout",
					Usage: "give up after this long",
					Value: time.Hour,
				},
			},
		},
		{
			Name:      "pods",
			Usage:     "Print the pods of a job",
			ArgsUsage: "JOB",
			Action:    GetJobPods,
		},
		{
			Name:      "delete",
			Usage:     "Delete jobs by name",
			ArgsUsage: "JOB [JOB...]",
			Action:    DeleteJob,
		},
		{
			Name:   "events",
			Usage:  "Print the events of the namespace, oldest first",
			Action: GetEvents,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print as JSON",
				},
			},
		},
		{
			Name:  "get",
			Usage: "Display one or many resources",
			Subcommands: []*cli.Command{
				{
					Name:   "jobs",
					Usage:  "Prints a table of all jobs.",
					Action: GetJobs,
				},
			},
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}
