package config

const (
	Name       = "gpujob"
	Msg        = "gpujob - GPU batch jobs on Kubernetes"
	Version    = "0.1.0"
	Port       = "55587"
	EntryPoint = "/jobs"
	Namespace  = "default"

	// Accelerator settings applied to every submitted job.
	AcceleratorResource = "nvidia.com/gpu"
	AcceleratorLabel    = "cloud.google.com/gke-accelerator"
	AcceleratorType     = "nvidia-tesla-t4"

	// Pod template label shared by all jobs, used to list them.
	AppLabelKey   = "app"
	AppLabelValue = "ml"
)
