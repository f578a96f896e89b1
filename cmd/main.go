package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"argus/internal/bootstrap"
	"argus/internal/services/pipeline"
)

const taskStartScheduler = "start_scheduler"

func main() {
	task := flag.String("task", pipeline.TaskFull,
		"task to run: full|price_crawl|reddit_collection|risk_scan|start_scheduler")
	flag.Parse()

	container := bootstrap.NewContainer()
	container.MustInit()

	if *task == taskStartScheduler {
		runDaemon(container)
		return
	}
	runTask(container, *task)
}

// runDaemon starts the HTTP server, the worker scheduler and the alert
// relay, then blocks until a shutdown signal arrives
func runDaemon(c *bootstrap.Container) {
	if err := c.Start(); err != nil {
		c.Log.Errorf("Failed to start: %v", err)
		c.Shutdown()
		os.Exit(1)
	}

	waitForShutdown(c)
	c.Shutdown()
}

// runTask executes a single pipeline task and exits. The run summary is
// logged by the pipeline itself; the exit code reports success.
func runTask(c *bootstrap.Container, task string) {
	// Cancel the run on SIGINT/SIGTERM so an interrupted crawl still
	// releases its locks and records its stats
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		c.Log.Info("Interrupt received, cancelling run...")
		c.Cancel()
	}()

	c.Log.Infof("Starting task: %s", task)

	var err error
	switch task {
	case pipeline.TaskFull:
		_, err = c.Services.Pipeline.RunFull(c.Context)
	case pipeline.TaskPriceCrawl:
		_, err = c.Services.Pipeline.RunPriceCrawl(c.Context)
	case pipeline.TaskRedditCollection:
		_, err = c.Services.Pipeline.RunRedditCollection(c.Context)
	case pipeline.TaskRiskScan:
		_, err = c.Services.Pipeline.RunRiskScan(c.Context)
	default:
		c.Shutdown()
		fmt.Fprintf(os.Stderr, "unknown task %q (expected full|price_crawl|reddit_collection|risk_scan|start_scheduler)\n", task)
		os.Exit(2)
	}

	c.Shutdown()
	if err != nil {
		os.Exit(1)
	}
}

// waitForShutdown blocks until a termination signal arrives or the
// container's context is cancelled (fatal HTTP server error)
func waitForShutdown(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Infof("Received signal: %v", sig)
	case <-c.Context.Done():
		c.Log.Info("Context cancelled, shutting down")
	}
}
