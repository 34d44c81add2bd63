package command

import (
	"fmt"
	"log/slog"

	"github.com/pixil98/go-roomwatch/internal/console"
	"github.com/pixil98/go-roomwatch/internal/driver"
	"github.com/pixil98/go-roomwatch/internal/listener"
	"github.com/pixil98/go-roomwatch/internal/messaging"
	"github.com/pixil98/go-roomwatch/internal/unity"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Packets arrive on nats subjects published by the host
	dispatcher := messaging.NewNatsDispatcher(natsServer, cfg.SubjectPrefix)

	registry, err := cfg.BuildRegistry(dispatcher)
	if err != nil {
		return nil, fmt.Errorf("creating room registry: %w", err)
	}
	registry.OnNewUsers(logNewUsers)

	var driverOpts []driver.DriverOpt
	if d := cfg.tickInterval(); d > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	drv := driver.NewDriver([]driver.Manager{registry}, driverOpts...)

	// Diagnostics console
	cm := listener.NewConnectionManager(console.NewConsole(registry))
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		w, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = w
	}

	return service.WorkerList{
		"nats":       natsServer,
		"dispatcher": dispatcher,
		"registry":   registry,
		"driver":     drv,
		"listeners":  &listeners,
	}, nil
}

func logNewUsers(entities []unity.Entity) {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	slog.Info("entities loaded", "count", len(entities), "names", names)
}
