package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/logger"
	"github.com/heyfey/gpujob/pkg/common/mongo"
	"github.com/heyfey/gpujob/pkg/common/rabbitmq"
	"github.com/heyfey/gpujob/pkg/connector"
	"github.com/heyfey/gpujob/pkg/jobmaster"
	"github.com/heyfey/gpujob/pkg/service/service"
	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"
)

func main() {
	fmt.Printf("%s (v%s) - Job Service\n", config.Msg, config.Version)

	// flag definition should placed before logger.InitLogger()
	/* flags */
	configDirPtr := flag.String("config-dir", ".", "directory holding appconfig.yaml")
	kubeconfigPtr := flag.String("kubeconfig", "", "absolute path to the kubeconfig file (overrides the config file)")
	/* flags end */

	logger.InitLogger()
	defer logger.Flush()

	appConfig, err := config.LoadConfig(*configDirPtr)
	if err != nil {
		klog.ErrorS(err, "Failed to load config")
		logger.Flush()
		os.Exit(1)
	}
	if err := logger.LogToDir(appConfig.LogDir); err != nil {
		klog.ErrorS(err, "Failed to set log dir", "logDir", appConfig.LogDir)
	}
	if *kubeconfigPtr != "" {
		appConfig.Cluster.Kubeconfig = *kubeconfigPtr
	}

	klog.InfoS(config.Msg, "version", config.Version)
	klog.InfoS("Starting job service", "namespace", appConfig.Namespace, "port", appConfig.Port,
		"accelerator", appConfig.Accelerator.Type, "aggregatePods", appConfig.AggregatePods)

	kClient, err := connector.Connect(context.Background(), appConfig.Cluster)
	if err != nil {
		klog.ErrorS(err, "Failed to connect to cluster")
		logger.Flush()
		os.Exit(1)
	}

	selection := jobmaster.PodSelectionFirst
	if appConfig.AggregatePods {
		selection = jobmaster.PodSelectionAggregate
	}
	jm := jobmaster.NewJobMaster(kClient, appConfig.Namespace,
		jobmaster.WithAccelerator(jobmaster.Accelerator{
			Resource:  corev1.ResourceName(appConfig.Accelerator.Resource),
			NodeLabel: appConfig.Accelerator.Label,
			Type:      appConfig.Accelerator.Type,
		}),
		jobmaster.WithPodSelection(selection),
		jobmaster.WithRegisterer(prometheus.DefaultRegisterer),
	)

	opts := []service.Option{}
	if appConfig.MongoURI != "" {
		session, err := mongo.ConnectMongo(appConfig.MongoURI)
		if err != nil {
			logger.Flush()
			os.Exit(1)
		}
		recorder := mongo.NewJobRecorder(session)
		defer recorder.Close()
		opts = append(opts, service.WithRecorder(recorder))
	}
	if appConfig.RabbitMQURL != "" {
		conn, err := rabbitmq.ConnectRabbitMQ(appConfig.RabbitMQURL)
		if err != nil {
			logger.Flush()
			os.Exit(1)
		}
		publisher := rabbitmq.NewPublisher(conn, appConfig.Queue)
		defer publisher.Close()
		opts = append(opts, service.WithNotifier(publisher))
	}

	s := service.NewService(jm, prometheus.DefaultRegisterer, opts...)
	err = http.ListenAndServe(":"+appConfig.Port, s.Router)
	klog.ErrorS(err, "Service shut down")
}
