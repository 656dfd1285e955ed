// Package shutdown coordinates graceful termination of the kvsession
// server.
//
// Hooks registered with OnShutdown run in reverse order of registration
// once SIGINT or SIGTERM arrives, or the parent context ends. All hooks
// share one deadline.
//
//	h := shutdown.NewHandler(15*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("renewals", manager.Wait)
//	err := h.Wait(ctx)
package shutdown
