/*
PURPOSE:
  High-level runner that brings several deployments up in parallel.
  Loops over specs, provisions each and waits for its health gate.

REQUIREMENTS:
  User-specified:
  - Deployments across instance types run concurrently.
  - One failed deployment must not stop the others.

  Implementation-discovered:
  - A deployment that launched but never became healthy is torn down
    unless the caller asks to keep it for debugging.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (deploy)
  - Uses: internal/deploy.Manager

ERROR HANDLING:
  - Logs errors but continues (resilience); each Outcome carries its own error.

IMPLEMENTATION RULES:
  - Outcomes keep the order of the input specs.

USAGE:
  outcomes := deploy.DeployAll(ctx, m, specs, deploy.BatchOptions{Timeout: 5 * time.Minute})

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/deploy/manager.go

MAINTENANCE:
  - Add a concurrency limit if GPU hosts get oversubscribed.
*/

package deploy

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daryltucker/forest-bench/internal/config"
)

// BatchOptions tunes DeployAll.
type BatchOptions struct {
	// Timeout is the health gate per deployment. Zero fails every gate.
	Timeout time.Duration
	// Keep leaves containers that failed their health gate running.
	Keep bool
}

// Outcome is the result of deploying one spec.
type Outcome struct {
	Spec    *config.DeploymentSpec
	Session *Session
	Err     error
}

// DeployAll deploys every spec concurrently and waits for all of them.
func DeployAll(ctx context.Context, m *Manager, specs []*config.DeploymentSpec, opts BatchOptions) []Outcome {
	outcomes := make([]Outcome, len(specs))

	var g errgroup.Group
	for i, spec := range specs {
		g.Go(func() error {
			s, err := m.Deploy(ctx, spec, opts.Timeout)
			outcomes[i] = Outcome{Spec: spec, Session: s, Err: err}
			if err == nil {
				return nil
			}

			m.logger.Error("Deployment failed", "container", spec.ContainerName, "error", err)
			var hte *HealthTimeoutError
			if errors.As(err, &hte) && !opts.Keep {
				m.logger.Info("Cleaning up unhealthy deployment", "container", spec.ContainerName)
				m.Teardown(context.WithoutCancel(ctx), spec.ContainerName)
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Errors joins the errors of every failed outcome.
func Errors(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
