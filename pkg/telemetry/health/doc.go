// Package health implements liveness and readiness probes for the gateway.
//
// Liveness answers "is the process running" and never fails. Readiness runs
// the registered component checks (audit store reachability, janitor state)
// and degrades to 503 when any of them report a problem, so orchestrators
// stop routing traffic to an instance that cannot admit requests correctly.
package health
