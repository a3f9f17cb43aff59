// Package bootstrap runs a service's lifecycle: it validates the typed
// config, initializes the logger, starts registered components in order,
// runs configure and readiness hooks, prints a startup summary, waits for
// SIGINT or SIGTERM and shuts down in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(discoveryComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
//	    return nil
//	})
//	err = app.Run(ctx)
package bootstrap
