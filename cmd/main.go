package main

import (
	"os"

	"github.com/heyfey/gpujob/cmd/cmd"
	"k8s.io/klog/v2"
)

func main() {
	err := cmd.NewApp().Run(os.Args)
	if err != nil {
		klog.ErrorS(err, "Failed")
		klog.Flush()
		os.Exit(1)
	}
}
