package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/mideployer"
)

func main() {
	// grid API: 3 envs × 2 apps = 6 servers from one declaration
	regional, err := mideployer.NewProductGrid("Regional",
		mideployer.WithHostTemplate("{{.app}}-{{.env}}.example.com"),
		mideployer.WithDimensions(map[string][]string{
			"app": {"api", "web"},
			"env": {"qa1", "qa2", "stg"},
		}),
	)
	if err != nil {
		slog.Error("failed to create product grid", "error", err)
		os.Exit(1)
	}

	corporate, _ := mideployer.NewProduct("CorporateTube",
		"test.qa1.corporate.tube",
		"test.qa2.corporate.tube",
	)

	audit := newAuditLog(os.Stdout)

	// a faster countdown than the default makes the demo snappier
	md, err := mideployer.New(
		mideployer.WithProducts(corporate, regional),
		mideployer.WithTitle("miDeployer demo"),
		mideployer.WithTickInterval(500*time.Millisecond),
		mideployer.WithDeployCallback(audit.Record),
		mideployer.WithPort(8080),
	)
	if err != nil {
		slog.Error("failed to create mideployer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Dashboard: http://localhost:8080")
	if err := md.Start(ctx); err != nil {
		slog.Error("mideployer error", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%d deploys started this session\n", audit.Started())
}
